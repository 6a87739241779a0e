package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-booking/internal/model"
)

const bookingColumns = "id,listing_id,tenant_id,landlord_id,start_date,end_date,total_price_cents,notes,status,created_at,updated_at"

// BookingTx is the work available inside a booking transaction. The first
// call must be LockListing; it serializes every writer for that listing
// until the transaction ends.
type BookingTx interface {
	LockListing(ctx context.Context, listingID string) (model.Listing, error)
	ActiveForListing(ctx context.Context, listingID string) ([]model.Booking, error)
	Create(ctx context.Context, b *model.Booking) error
}

// BookingRepo persists reservations.
type BookingRepo struct {
	DB       *sql.DB
	listings *ListingRepo
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{DB: db, listings: NewListingRepo(db)}
}

// BeginTx opens a read-committed transaction. Row locks taken with FOR UPDATE
// still serialize writers; read committed keeps the overlap query from
// reading a stale snapshot after the lock is granted.
func (r *BookingRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// InTx runs fn inside one transaction, committing when fn returns nil and
// rolling back otherwise.
func (r *BookingRepo) InTx(ctx context.Context, fn func(BookingTx) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&bookingTx{repo: r, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	committed = true
	return nil
}

type bookingTx struct {
	repo *BookingRepo
	tx   *sql.Tx
}

func (b *bookingTx) LockListing(ctx context.Context, listingID string) (model.Listing, error) {
	return b.repo.listings.GetByIDForUpdateTx(ctx, b.tx, listingID)
}

func (b *bookingTx) ActiveForListing(ctx context.Context, listingID string) ([]model.Booking, error) {
	return b.repo.ActiveForListingTx(ctx, b.tx, listingID)
}

func (b *bookingTx) Create(ctx context.Context, bk *model.Booking) error {
	return b.repo.CreateTx(ctx, b.tx, bk)
}

func scanBooking(row rowScanner) (model.Booking, error) {
	var (
		b     model.Booking
		notes sql.NullString
	)
	err := row.Scan(&b.ID, &b.ListingID, &b.TenantID, &b.LandlordID, &b.StartDate, &b.EndDate,
		&b.TotalPriceCents, &notes, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	b.Notes = notes.String
	return b, err
}

// CreateTx inserts b inside tx, assigning ID and timestamps.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	b.CreatedAt, b.UpdatedAt = now, now
	var notes sql.NullString
	if b.Notes != "" {
		notes = sql.NullString{String: b.Notes, Valid: true}
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO bookings ("+bookingColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?)",
		b.ID, b.ListingID, b.TenantID, b.LandlordID, b.StartDate, b.EndDate,
		b.TotalPriceCents, notes, string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// ActiveForListingTx returns the pending and confirmed bookings of a listing.
func (r *BookingRepo) ActiveForListingTx(ctx context.Context, tx *sql.Tx, listingID string) ([]model.Booking, error) {
	return collectBookings(tx.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE listing_id=? AND status IN (?,?) ORDER BY start_date",
		listingID, string(model.BookingPending), string(model.BookingConfirmed)))
}

// GetByID fetches a booking.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
	return b, notFound(err, "booking")
}

// UpdateStatus overwrites the status unconditionally and returns the stored
// row.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (model.Booking, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=? WHERE id=?",
		string(status), time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return model.Booking{}, fmt.Errorf("update booking status: %w", err)
	}
	if err := requireRow(res, "booking"); err != nil {
		return model.Booking{}, err
	}
	return r.GetByID(ctx, id)
}

// ListByTenant returns the bookings a tenant made.
func (r *BookingRepo) ListByTenant(ctx context.Context, tenantID string, page Page) ([]model.Booking, error) {
	page = page.normalize()
	return collectBookings(r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE tenant_id=? ORDER BY start_date DESC, id LIMIT ? OFFSET ?",
		tenantID, page.Limit, page.Offset))
}

// ListByLandlord returns bookings on a landlord's listings.
func (r *BookingRepo) ListByLandlord(ctx context.Context, landlordID string, page Page) ([]model.Booking, error) {
	page = page.normalize()
	return collectBookings(r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE landlord_id=? ORDER BY start_date DESC, id LIMIT ? OFFSET ?",
		landlordID, page.Limit, page.Offset))
}

// ListAll returns every booking, newest first.
func (r *BookingRepo) ListAll(ctx context.Context, page Page) ([]model.Booking, error) {
	page = page.normalize()
	return collectBookings(r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		page.Limit, page.Offset))
}

func collectBookings(rows *sql.Rows, err error) ([]model.Booking, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
