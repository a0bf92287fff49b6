package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sightlinehq/optishop-backend/pkg/enums"
	"github.com/sightlinehq/optishop-backend/pkg/types"
)

// JobWork is one unit of outsourced lens work for one side of one order.
// Once a record leaves pending it is immutable except for being superseded
// by a replacement row.
type JobWork struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	SaleID      uuid.UUID           `gorm:"column:sale_id;type:uuid;not null"`
	StoreID     uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	Side        enums.LensSide      `gorm:"column:side;type:lens_side;not null"`
	VendorID    *uuid.UUID          `gorm:"column:vendor_id;type:uuid"`
	Vendor      *Vendor             `gorm:"foreignKey:VendorID"`
	Status      enums.JobWorkStatus `gorm:"column:status;type:job_work_status;not null;default:'pending'"`
	Lens        types.LensSnapshot  `gorm:"column:lens;type:jsonb;serializer:json"`
	PowerAtTime types.PowerSnapshot `gorm:"column:power_at_time;type:jsonb;serializer:json"`
	Note        *string             `gorm:"column:note"`
	ReceivedAt  *time.Time          `gorm:"column:received_at"`
	ResolvedAt  *time.Time          `gorm:"column:resolved_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsActive reports whether this record still occupies its (order, side) slot.
func (j *JobWork) IsActive() bool {
	return j != nil && j.Status.IsActive()
}
