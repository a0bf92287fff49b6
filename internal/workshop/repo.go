package workshop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	"github.com/sightlinehq/optishop-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a workshop repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("CurrentLeftJobWork").
		Preload("CurrentLeftJobWork.Vendor").
		Preload("CurrentRightJobWork").
		Preload("CurrentRightJobWork.Vendor").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindJobWork(ctx context.Context, jobWorkID uuid.UUID) (*models.JobWork, error) {
	var jobWork models.JobWork
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Where("id = ?", jobWorkID).
		First(&jobWork).Error
	if err != nil {
		return nil, err
	}
	return &jobWork, nil
}

func (r *repository) CreateJobWork(ctx context.Context, jobWork *models.JobWork) (*models.JobWork, error) {
	if jobWork.ID == uuid.Nil {
		jobWork.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(jobWork).Error; err != nil {
		return nil, err
	}
	return jobWork, nil
}

// UpdateJobWorkStatus sets the status plus the matching timestamp column in a
// single UPDATE. Zero rows affected means the record does not exist.
func (r *repository) UpdateJobWorkStatus(ctx context.Context, jobWorkID uuid.UUID, status enums.JobWorkStatus) (int64, error) {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	switch status {
	case enums.JobWorkStatusReceived:
		updates["received_at"] = now
	case enums.JobWorkStatusDamaged, enums.JobWorkStatusCanceled:
		updates["resolved_at"] = now
	}

	res := r.db.WithContext(ctx).
		Model(&models.JobWork{}).
		Where("id = ?", jobWorkID).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UpdateOrderStatus sets the order status plus the matching timestamp column
// in a single UPDATE.
func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (int64, error) {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	switch status {
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusReturned:
		updates["returned_at"] = now
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
