package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sightlinehq/optishop-backend/pkg/enums"
	"github.com/sightlinehq/optishop-backend/pkg/types"
)

// Order is one eyewear item (frame + lenses) within a sale, tracked
// independently through the workshop stages.
//
// CurrentLeftJobWorkID/CurrentRightJobWorkID always point at the most recent
// non-superseded job work for that side. Superseded records stay in the
// job_works table marked canceled or damaged; they are never deleted.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID                uuid.UUID           `gorm:"column:sale_id;type:uuid;not null"`
	StoreID               uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	BillNumber            int64               `gorm:"column:bill_number;not null"`
	Status                enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Frame                 types.FrameSnapshot `gorm:"column:frame;type:jsonb;serializer:json"`
	Lens                  types.LensSnapshot  `gorm:"column:lens;type:jsonb;serializer:json"`
	PowerAtTime           types.PowerSnapshot `gorm:"column:power_at_time;type:jsonb;serializer:json"`
	CurrentLeftJobWorkID  *uuid.UUID          `gorm:"column:current_left_job_work_id;type:uuid"`
	CurrentRightJobWorkID *uuid.UUID          `gorm:"column:current_right_job_work_id;type:uuid"`
	CurrentLeftJobWork    *JobWork            `gorm:"foreignKey:CurrentLeftJobWorkID"`
	CurrentRightJobWork   *JobWork            `gorm:"foreignKey:CurrentRightJobWorkID"`
	VendorNote            *string             `gorm:"column:vendor_note"`
	DeliveredAt           *time.Time          `gorm:"column:delivered_at"`
	ReturnedAt            *time.Time          `gorm:"column:returned_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// CurrentJobWorkID returns the pointer column for the requested side.
func (o *Order) CurrentJobWorkID(side enums.LensSide) *uuid.UUID {
	if side == enums.LensSideLeft {
		return o.CurrentLeftJobWorkID
	}
	return o.CurrentRightJobWorkID
}

// CurrentJobWork returns the preloaded job work for the requested side.
func (o *Order) CurrentJobWork(side enums.LensSide) *JobWork {
	if side == enums.LensSideLeft {
		return o.CurrentLeftJobWork
	}
	return o.CurrentRightJobWork
}
