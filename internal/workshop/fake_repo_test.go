package workshop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	"github.com/sightlinehq/optishop-backend/pkg/enums"
)

// fakeRepo is an in-memory Repository. Finds resolve job work pointers from
// the live map so gate reads behave like fresh queries.
type fakeRepo struct {
	orders   map[uuid.UUID]*models.Order
	jobWorks map[uuid.UUID]*models.JobWork

	findOrderErr         error
	createJobWorkErr     error
	updateJobWorkErr     error
	updateOrderErr       error
	updateOrderStatusErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   make(map[uuid.UUID]*models.Order),
		jobWorks: make(map[uuid.UUID]*models.JobWork),
	}
}

func (f *fakeRepo) addOrder(order *models.Order) *models.Order {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.SaleID == uuid.Nil {
		order.SaleID = uuid.New()
	}
	if order.StoreID == uuid.Nil {
		order.StoreID = uuid.New()
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusPending
	}
	f.orders[order.ID] = order
	return order
}

func (f *fakeRepo) addJobWork(jobWork *models.JobWork) *models.JobWork {
	if jobWork.ID == uuid.Nil {
		jobWork.ID = uuid.New()
	}
	if jobWork.Status == "" {
		jobWork.Status = enums.JobWorkStatusPending
	}
	f.jobWorks[jobWork.ID] = jobWork
	return jobWork
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if f.findOrderErr != nil {
		return nil, f.findOrderErr
	}
	stored, ok := f.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	order := *stored
	if order.CurrentLeftJobWorkID != nil {
		if jw, ok := f.jobWorks[*order.CurrentLeftJobWorkID]; ok {
			copied := *jw
			order.CurrentLeftJobWork = &copied
		}
	}
	if order.CurrentRightJobWorkID != nil {
		if jw, ok := f.jobWorks[*order.CurrentRightJobWorkID]; ok {
			copied := *jw
			order.CurrentRightJobWork = &copied
		}
	}
	return &order, nil
}

func (f *fakeRepo) FindJobWork(ctx context.Context, jobWorkID uuid.UUID) (*models.JobWork, error) {
	stored, ok := f.jobWorks[jobWorkID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeRepo) CreateJobWork(ctx context.Context, jobWork *models.JobWork) (*models.JobWork, error) {
	if f.createJobWorkErr != nil {
		return nil, f.createJobWorkErr
	}
	if jobWork.ID == uuid.Nil {
		jobWork.ID = uuid.New()
	}
	stored := *jobWork
	f.jobWorks[stored.ID] = &stored
	return jobWork, nil
}

func (f *fakeRepo) UpdateJobWorkStatus(ctx context.Context, jobWorkID uuid.UUID, status enums.JobWorkStatus) (int64, error) {
	if f.updateJobWorkErr != nil {
		return 0, f.updateJobWorkErr
	}
	jobWork, ok := f.jobWorks[jobWorkID]
	if !ok {
		return 0, nil
	}
	now := time.Now().UTC()
	jobWork.Status = status
	switch status {
	case enums.JobWorkStatusReceived:
		jobWork.ReceivedAt = &now
	case enums.JobWorkStatusDamaged, enums.JobWorkStatusCanceled:
		jobWork.ResolvedAt = &now
	}
	return 1, nil
}

func (f *fakeRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (int64, error) {
	if f.updateOrderStatusErr != nil {
		return 0, f.updateOrderStatusErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return 0, nil
	}
	order.Status = status
	return 1, nil
}

func (f *fakeRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) (int64, error) {
	if f.updateOrderErr != nil {
		return 0, f.updateOrderErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return 0, nil
	}
	for column, value := range updates {
		switch column {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "current_left_job_work_id":
			id := value.(uuid.UUID)
			order.CurrentLeftJobWorkID = &id
		case "current_right_job_work_id":
			id := value.(uuid.UUID)
			order.CurrentRightJobWorkID = &id
		case "vendor_note":
			note := value.(string)
			order.VendorNote = &note
		}
	}
	return 1, nil
}
