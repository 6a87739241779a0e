package router

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// fakeDB is an in-memory stand-in for the MySQL repositories. InTx holds a
// single mutex for the whole transaction, which serializes writers the way
// the listing row lock does.
type fakeDB struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	users    map[string]model.User
	listings map[string]model.Listing
	bookings map[string]model.Booking
	refresh  map[string]model.RefreshToken
	creates  int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:    map[string]model.User{},
		listings: map[string]model.Listing{},
		bookings: map[string]model.Booking{},
		refresh:  map[string]model.RefreshToken{},
	}
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// users

type fakeUsers struct{ db *fakeDB }

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u.Email = repository.NormalizeEmail(u.Email)
	if err := u.Validate(); err != nil {
		return apperrors.InvalidInput("user", err.Error())
	}
	for _, existing := range f.db.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	f.db.users[u.ID] = *u
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return model.User{}, apperrors.NotFound("user")
	}
	return u, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == repository.NormalizeEmail(email) {
			return u, nil
		}
	}
	return model.User{}, apperrors.NotFound("user")
}

func (f fakeUsers) GetByProviderSubject(_ context.Context, provider, subject string) (model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Provider == provider && u.ProviderSubject != nil && *u.ProviderSubject == subject {
			return u, nil
		}
	}
	return model.User{}, apperrors.NotFound("user")
}

func (f fakeUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u := f.db.users[id]
	u.LastLoginAt = &at
	f.db.users[id] = u
	return nil
}

func (f fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return apperrors.NotFound("user")
	}
	u.IsActive = active
	f.db.users[id] = u
	return nil
}

func (f fakeUsers) Delete(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[id]; !ok {
		return apperrors.NotFound("user")
	}
	delete(f.db.users, id)
	return nil
}

func (f fakeUsers) List(_ context.Context, _ repository.Page) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]model.User, 0, len(f.db.users))
	for _, u := range f.db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// listings

type fakeListings struct{ db *fakeDB }

func (f fakeListings) Create(_ context.Context, l *model.Listing) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	f.db.listings[l.ID] = *l
	return nil
}

func (f fakeListings) GetByID(_ context.Context, id string) (model.Listing, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	l, ok := f.db.listings[id]
	if !ok {
		return model.Listing{}, apperrors.NotFound("listing")
	}
	return l, nil
}

func (f fakeListings) Update(_ context.Context, l *model.Listing) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.listings[l.ID]; !ok {
		return apperrors.NotFound("listing")
	}
	f.db.listings[l.ID] = *l
	return nil
}

func (f fakeListings) Delete(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.listings[id]; !ok {
		return apperrors.NotFound("listing")
	}
	delete(f.db.listings, id)
	return nil
}

func (f fakeListings) List(_ context.Context, flt repository.ListingFilter) ([]model.Listing, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Listing
	for _, l := range f.db.listings {
		if flt.MaxPriceCents != nil && l.PriceCents > *flt.MaxPriceCents {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// bookings

type fakeBookings struct{ db *fakeDB }

type fakeTx struct {
	db      *fakeDB
	pending []model.Booking
}

func (t *fakeTx) LockListing(_ context.Context, id string) (model.Listing, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	l, ok := t.db.listings[id]
	if !ok {
		return model.Listing{}, apperrors.NotFound("listing")
	}
	return l, nil
}

func (t *fakeTx) ActiveForListing(_ context.Context, id string) ([]model.Booking, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var out []model.Booking
	for _, b := range t.db.bookings {
		if b.ListingID == id && b.Status.IsActive() {
			out = append(out, b)
		}
	}
	// Yield so racing goroutines interleave between read and write.
	time.Sleep(time.Millisecond)
	return out, nil
}

func (t *fakeTx) Create(_ context.Context, b *model.Booking) error {
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	t.pending = append(t.pending, *b)
	return nil
}

func (f fakeBookings) InTx(_ context.Context, fn func(repository.BookingTx) error) error {
	f.db.txMu.Lock()
	defer f.db.txMu.Unlock()
	tx := &fakeTx{db: f.db}
	if err := fn(tx); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range tx.pending {
		f.db.bookings[b.ID] = b
		f.db.creates++
	}
	return nil
}

func (f fakeBookings) GetByID(_ context.Context, id string) (model.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.bookings[id]
	if !ok {
		return model.Booking{}, apperrors.NotFound("booking")
	}
	return b, nil
}

func (f fakeBookings) UpdateStatus(_ context.Context, id string, status model.BookingStatus) (model.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.bookings[id]
	if !ok {
		return model.Booking{}, apperrors.NotFound("booking")
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	f.db.bookings[id] = b
	return b, nil
}

func (f fakeBookings) filter(keep func(model.Booking) bool) []model.Booking {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.Booking{}
	for _, b := range f.db.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (f fakeBookings) ListByTenant(_ context.Context, id string, _ repository.Page) ([]model.Booking, error) {
	return f.filter(func(b model.Booking) bool { return b.TenantID == id }), nil
}

func (f fakeBookings) ListByLandlord(_ context.Context, id string, _ repository.Page) ([]model.Booking, error) {
	return f.filter(func(b model.Booking) bool { return b.LandlordID == id }), nil
}

func (f fakeBookings) ListAll(_ context.Context, _ repository.Page) ([]model.Booking, error) {
	return f.filter(func(model.Booking) bool { return true }), nil
}

// refresh tokens

type fakeTokens struct{ db *fakeDB }

func (f fakeTokens) StoreRefresh(_ context.Context, userID, hash string, exp time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.refresh[hash] = model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (f fakeTokens) ValidateRefresh(_ context.Context, hash string) (string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	rt, ok := f.db.refresh[hash]
	if !ok || rt.RevokedAt != nil || !time.Now().Before(rt.ExpiresAt) {
		return "", apperrors.Unauthenticated("invalid refresh token")
	}
	return rt.UserID, nil
}

func (f fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if rt, ok := f.db.refresh[hash]; ok && rt.RevokedAt == nil {
		now := time.Now()
		rt.RevokedAt = &now
		f.db.refresh[hash] = rt
	}
	return nil
}

func (f fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	now := time.Now()
	for h, rt := range f.db.refresh {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			f.db.refresh[h] = rt
		}
	}
	return nil
}

// recordingNotifier captures notifier calls.
type recordingNotifier struct {
	mu        sync.Mutex
	requested []model.Booking
	changed   []model.Booking
}

func (r *recordingNotifier) BookingRequested(_ context.Context, b model.Booking, _ model.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requested = append(r.requested, b)
}

func (r *recordingNotifier) BookingStatusChanged(_ context.Context, b model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, b)
}
