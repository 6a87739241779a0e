package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-booking/internal/access"
	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/metrics"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// CreateBookingInput is the tenant's request. Dates are ISO-8601 strings.
type CreateBookingInput struct {
	ListingID string `json:"listing_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Notes     string `json:"notes" validate:"max=2000"`
}

// BookingService is the booking engine.
type BookingService struct {
	gate     *access.Gate
	bookings BookingStore
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewBookingService(gate *access.Gate, bookings BookingStore, notifier Notifier, m *metrics.Metrics, logger *slog.Logger) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{gate: gate, bookings: bookings, notifier: notifier, metrics: m, logger: logger}
}

// CreateBooking validates the request, then checks availability and writes
// the pending booking inside one transaction holding the listing's row
// lock. Two overlapping requests for the same listing therefore cannot both
// pass the overlap check. The landlord is notified after commit.
func (s *BookingService) CreateBooking(ctx context.Context, tenant model.User, in CreateBookingInput) (model.Booking, error) {
	if err := s.gate.Authorize(tenant, model.RoleTenant); err != nil {
		return model.Booking{}, err
	}
	if _, err := uuid.Parse(in.ListingID); err != nil {
		return model.Booking{}, apperrors.InvalidReference("listing_id")
	}
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return model.Booking{}, dateInput("start_date", err)
	}
	end, err := ParseDate(in.EndDate)
	if err != nil {
		return model.Booking{}, dateInput("end_date", err)
	}
	if !start.Before(end) {
		return model.Booking{}, apperrors.InvalidDateRange("start_date must be before end_date")
	}
	requested := model.DateRange{Start: start, End: end}

	var (
		booking model.Booking
		listing model.Listing
	)
	err = s.bookings.InTx(ctx, func(tx repository.BookingTx) error {
		l, err := tx.LockListing(ctx, in.ListingID)
		if err != nil {
			return err
		}
		listing = l

		days := requested.Days()
		if listing.PriceCents > 0 && days > math.MaxInt64/listing.PriceCents {
			return apperrors.InvalidInput("end_date", "booking too long")
		}

		active, err := tx.ActiveForListing(ctx, listing.ID)
		if err != nil {
			return err
		}
		for _, existing := range active {
			if existing.Range().Overlaps(requested) {
				return apperrors.Conflict("dates unavailable")
			}
		}

		booking = model.Booking{
			ListingID:       listing.ID,
			TenantID:        tenant.ID,
			LandlordID:      listing.LandlordID,
			StartDate:       start,
			EndDate:         end,
			TotalPriceCents: listing.PriceCents * days,
			Notes:           strings.TrimSpace(in.Notes),
			Status:          model.BookingPending,
		}
		return tx.Create(ctx, &booking)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			s.metrics.BookingConflict()
		}
		return model.Booking{}, err
	}

	s.metrics.BookingCreated()
	s.logger.InfoContext(ctx, "booking created",
		slog.String("booking_id", booking.ID),
		slog.String("listing_id", booking.ListingID),
		slog.String("tenant_id", booking.TenantID),
		slog.Int64("total_price_cents", booking.TotalPriceCents))

	s.notifier.BookingRequested(ctx, booking, listing)
	return booking, nil
}

// SetBookingStatus moves a booking to confirmed or cancelled on behalf of
// the landlord recorded on it. The current status is not checked: repeating
// a call, or switching between confirmed and cancelled, simply overwrites.
func (s *BookingService) SetBookingStatus(ctx context.Context, landlord model.User, bookingID string, status model.BookingStatus) (model.Booking, error) {
	if err := s.gate.Authorize(landlord, model.RoleLandlord); err != nil {
		return model.Booking{}, err
	}
	if !status.IsTransitionTarget() {
		return model.Booking{}, apperrors.InvalidInput("status", "must be confirmed or cancelled")
	}
	if _, err := uuid.Parse(bookingID); err != nil {
		return model.Booking{}, apperrors.InvalidReference("id")
	}

	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if err := s.gate.AuthorizeOwnership(landlord, current); err != nil {
		return model.Booking{}, err
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, status)
	if err != nil {
		return model.Booking{}, err
	}

	s.metrics.BookingStatusChanged(string(status))
	s.logger.InfoContext(ctx, "booking status changed",
		slog.String("booking_id", updated.ID),
		slog.String("from", string(current.Status)),
		slog.String("to", string(updated.Status)))

	s.notifier.BookingStatusChanged(ctx, updated)
	return updated, nil
}

// GetBooking returns a booking to its tenant, its landlord or an admin.
func (s *BookingService) GetBooking(ctx context.Context, user model.User, bookingID string) (model.Booking, error) {
	if _, err := uuid.Parse(bookingID); err != nil {
		return model.Booking{}, apperrors.InvalidReference("id")
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if user.Role == model.RoleAdmin || b.TenantID == user.ID || b.LandlordID == user.ID {
		return b, nil
	}
	return model.Booking{}, apperrors.Forbidden("not a party to this booking")
}

// ListMyBookings returns a tenant's own bookings, or the bookings on a
// landlord's listings.
func (s *BookingService) ListMyBookings(ctx context.Context, user model.User, page repository.Page) ([]model.Booking, error) {
	switch user.Role {
	case model.RoleTenant:
		return s.bookings.ListByTenant(ctx, user.ID, page)
	case model.RoleLandlord:
		return s.bookings.ListByLandlord(ctx, user.ID, page)
	default:
		return s.ListAllBookings(ctx, user, page)
	}
}

// ListAllBookings is admin only.
func (s *BookingService) ListAllBookings(ctx context.Context, admin model.User, page repository.Page) ([]model.Booking, error) {
	if err := s.gate.Authorize(admin, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.bookings.ListAll(ctx, page)
}

// errDateHasTime rejects timestamps: bookings cover whole days and are
// stored in DATE columns.
var errDateHasTime = errors.New("date must not carry a time of day")

// ParseDate accepts a calendar date in YYYY-MM-DD form and returns its
// midnight UTC. Timestamps such as RFC3339 values are rejected rather than
// truncated.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if _, tsErr := time.Parse(time.RFC3339Nano, s); tsErr == nil {
			return time.Time{}, errDateHasTime
		}
		return time.Time{}, err
	}
	return t, nil
}

func dateInput(field string, err error) error {
	if errors.Is(err, errDateHasTime) {
		return apperrors.InvalidInput(field, "must be a calendar date (YYYY-MM-DD) without a time")
	}
	return apperrors.InvalidInput(field, "must be a calendar date (YYYY-MM-DD)")
}
