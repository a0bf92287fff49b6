package types

// LensSnapshot pins the lens chosen for a job work. Copied onto the job work
// record at creation so vendor paperwork survives catalog edits.
type LensSnapshot struct {
	SKU        string  `json:"sku,omitempty"`
	Name       string  `json:"name,omitempty"`
	Brand      string  `json:"brand,omitempty"`
	Coating    string  `json:"coating,omitempty"`
	Index      string  `json:"index,omitempty"`
	MRPCents   int     `json:"mrp_cents,omitempty"`
	PriceCents int     `json:"price_cents,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// FrameSnapshot pins the frame sold with the order.
type FrameSnapshot struct {
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"name,omitempty"`
	Brand      string `json:"brand,omitempty"`
	Color      string `json:"color,omitempty"`
	MRPCents   int    `json:"mrp_cents,omitempty"`
	PriceCents int    `json:"price_cents,omitempty"`
}
