package model

import (
	"math"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	// BookingCompleted is set by an external scheduled process only.
	BookingCompleted BookingStatus = "completed"
)

// IsActive reports whether a booking in this state blocks its dates.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

// IsTransitionTarget reports whether a landlord may move a booking into s.
func (s BookingStatus) IsTransitionTarget() bool {
	return s == BookingConfirmed || s == BookingCancelled
}

// Booking records a tenant's reservation of a listing for [StartDate, EndDate).
// LandlordID is a snapshot of the listing owner at creation time and is the
// reference used for ownership checks.
type Booking struct {
	ID              string        `json:"id"`
	ListingID       string        `json:"listing_id"`
	TenantID        string        `json:"tenant_id"`
	LandlordID      string        `json:"landlord_id"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	TotalPriceCents int64         `json:"total_price_cents"`
	Notes           string        `json:"notes,omitempty"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Range returns the booking's half-open date range.
func (b Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps is the booking conflict predicate: a.Start < b.End && a.End > b.Start.
// Ranges that only touch (one ends the day the other starts) do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && r.End.After(other.Start)
}

// Days is the rounded absolute length of the range in whole days.
func (r DateRange) Days() int64 {
	d := r.End.Sub(r.Start)
	if d < 0 {
		d = -d
	}
	return int64(math.Round(float64(d) / float64(24*time.Hour)))
}
