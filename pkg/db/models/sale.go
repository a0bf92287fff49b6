package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale is the customer transaction containing one or more orders. The
// workshop core treats it as read-only apart from its note fields.
type Sale struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	BillNumber    int64     `gorm:"column:bill_number;not null"`
	CustomerName  string    `gorm:"column:customer_name;not null"`
	CustomerPhone *string   `gorm:"column:customer_phone"`
	Note          *string   `gorm:"column:note"`
	TotalCents    int       `gorm:"column:total_cents;not null;default:0"`
	PaidCents     int       `gorm:"column:paid_cents;not null;default:0"`
	Orders        []Order   `gorm:"foreignKey:SaleID"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
