package vendors

import (
	"time"

	"github.com/google/uuid"

	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	pkgpagination "github.com/sightlinehq/optishop-backend/pkg/pagination"
)

// ListParams filters the vendor options for the assignment dropdown.
type ListParams struct {
	StoreID uuid.UUID
	Query   string
	// ActiveOnly hides retired labs; the default is to show everything.
	ActiveOnly bool
	pkgpagination.Params
}

// ListResult is one page of vendors plus the cursor for the next one.
type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

// ListItem is the controller-facing vendor shape.
type ListItem struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateParams carries the fields for registering a lab.
type CreateParams struct {
	StoreID uuid.UUID
	Name    string
	Phone   *string
	Email   *string
	Address *string
	// Active defaults to true when nil.
	Active *bool
}

type listQuery struct {
	storeID    uuid.UUID
	query      string
	activeOnly bool
	limit      int
	cursor     *pkgpagination.Cursor
}

func toListItem(m models.Vendor) ListItem {
	return ListItem{
		ID:        m.ID,
		StoreID:   m.StoreID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		Address:   m.Address,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}
