package types

import "github.com/shopspring/decimal"

// EyePower holds one eye's prescription values. Sphere/cylinder/add move in
// 0.25 dioptre steps, so they are decimals rather than floats.
type EyePower struct {
	Sphere   *decimal.Decimal `json:"sphere,omitempty"`
	Cylinder *decimal.Decimal `json:"cylinder,omitempty"`
	Axis     *int             `json:"axis,omitempty"`
	Add      *decimal.Decimal `json:"add,omitempty"`
	PD       *decimal.Decimal `json:"pd,omitempty"`
}

// PowerSnapshot freezes the prescription as it was when the order was placed.
// Orders and job works carry their own copy; later edits to the customer's
// prescription never touch it.
type PowerSnapshot struct {
	Left  *EyePower `json:"left,omitempty"`
	Right *EyePower `json:"right,omitempty"`
}

// ForSide returns the eye matching a job work side, or nil.
func (p PowerSnapshot) ForSide(side string) *EyePower {
	switch side {
	case "left":
		return p.Left
	case "right":
		return p.Right
	default:
		return nil
	}
}
