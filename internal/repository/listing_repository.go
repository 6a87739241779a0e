package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-booking/internal/model"
)

const listingColumns = "id,landlord_id,title,description,price_cents,location,image_url,created_at,updated_at"

// ListingFilter narrows ListingRepo.List. Zero values match everything.
type ListingFilter struct {
	Location      string
	MaxPriceCents *int64
	LandlordID    string
	Page
}

// ListingRepo persists rentable properties.
type ListingRepo struct{ DB *sql.DB }

func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{DB: db} }

func scanListing(row rowScanner) (model.Listing, error) {
	var l model.Listing
	err := row.Scan(&l.ID, &l.LandlordID, &l.Title, &l.Description, &l.PriceCents,
		&l.Location, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// Create inserts l, assigning ID and timestamps.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	l.CreatedAt, l.UpdatedAt = now, now
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO listings ("+listingColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		l.ID, l.LandlordID, l.Title, l.Description, l.PriceCents, l.Location, l.ImageURL, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// GetByID fetches a listing.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (model.Listing, error) {
	l, err := scanListing(r.DB.QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM listings WHERE id=? LIMIT 1", id))
	return l, notFound(err, "listing")
}

// GetByIDForUpdateTx reads a listing and takes its row lock until tx ends.
// Concurrent booking transactions on the same listing queue here.
func (r *ListingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Listing, error) {
	l, err := scanListing(tx.QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM listings WHERE id=? FOR UPDATE", id))
	return l, notFound(err, "listing")
}

// Update writes the mutable fields of l. The owner is never changed.
func (r *ListingRepo) Update(ctx context.Context, l *model.Listing) error {
	l.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE listings SET title=?, description=?, price_cents=?, location=?, image_url=?, updated_at=? WHERE id=?",
		l.Title, l.Description, l.PriceCents, l.Location, l.ImageURL, l.UpdatedAt, l.ID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return requireRow(res, "listing")
}

// Delete removes a listing. Its bookings are kept.
func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM listings WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res, "listing")
}

// List returns listings matching f, newest first.
func (r *ListingRepo) List(ctx context.Context, f ListingFilter) ([]model.Listing, error) {
	var (
		where []string
		args  []any
	)
	if loc := strings.TrimSpace(f.Location); loc != "" {
		where = append(where, "location LIKE ?")
		args = append(args, "%"+escapeLike(loc)+"%")
	}
	if f.MaxPriceCents != nil {
		where = append(where, "price_cents <= ?")
		args = append(args, *f.MaxPriceCents)
	}
	if f.LandlordID != "" {
		where = append(where, "landlord_id = ?")
		args = append(args, f.LandlordID)
	}

	q := "SELECT " + listingColumns + " FROM listings"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.normalize()
	q += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
