package workshop

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	"github.com/sightlinehq/optishop-backend/pkg/enums"
)

// Repository defines persistence operations for orders and job works.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindJobWork(ctx context.Context, jobWorkID uuid.UUID) (*models.JobWork, error)
	CreateJobWork(ctx context.Context, jobWork *models.JobWork) (*models.JobWork, error)
	UpdateJobWorkStatus(ctx context.Context, jobWorkID uuid.UUID, status enums.JobWorkStatus) (int64, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (int64, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) (int64, error)
}
