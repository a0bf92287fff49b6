package workshop

import (
	"github.com/google/uuid"

	"github.com/sightlinehq/optishop-backend/pkg/enums"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
)

// AssignVendorInput carries the data to send one side of an order to a vendor.
type AssignVendorInput struct {
	OrderID  uuid.UUID
	Side     enums.LensSide
	VendorID uuid.UUID
	Note     *string
}

// MarkDamagedInput requests damage replacement for one or both sides.
type MarkDamagedInput struct {
	OrderID uuid.UUID
	Sides   []enums.LensSide
	Note    *string
}

// SideFailure records why one side of a damage replacement was skipped.
type SideFailure struct {
	Side enums.LensSide `json:"side"`
	Err  error          `json:"-"`
}

// Message returns the user-facing failure text.
func (f SideFailure) Message() string {
	if typed := pkgerrors.As(f.Err); typed != nil {
		return typed.Message()
	}
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// DamageResult reports which sides got replacement job works and which failed.
type DamageResult struct {
	Replacements map[enums.LensSide]uuid.UUID
	SideFailures []SideFailure
}

// Succeeded reports whether at least one side got a replacement.
func (r *DamageResult) Succeeded() bool {
	return r != nil && len(r.Replacements) > 0
}

// BatchAssignInput applies the same vendor assignment across a selection.
type BatchAssignInput struct {
	Selection Selection
	Side      enums.LensSide
	VendorID  uuid.UUID
	Note      *string
}

// BatchDamageInput applies the same damage replacement across a selection.
type BatchDamageInput struct {
	Selection Selection
	Sides     []enums.LensSide
	Note      *string
}
