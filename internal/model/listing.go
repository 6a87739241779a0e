package model

import "time"

// Listing is a rentable property owned by a landlord. PriceCents is the
// per-day rate in minor currency units.
type Listing struct {
	ID          string    `json:"id"`
	LandlordID  string    `json:"landlord_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Location    string    `json:"location"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
