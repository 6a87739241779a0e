// Package service implements the booking engine and the account, listing
// and admin operations around it. Every operation takes the already
// authenticated caller and runs its role and ownership checks through the
// access gate, so the rules hold whichever transport calls in.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page repository.Page) ([]model.User, error)
}

// ListingStore is implemented by repository.ListingRepo.
type ListingStore interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id string) (model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.ListingFilter) ([]model.Listing, error)
}

// BookingStore is implemented by repository.BookingRepo.
type BookingStore interface {
	InTx(ctx context.Context, fn func(repository.BookingTx) error) error
	GetByID(ctx context.Context, id string) (model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (model.Booking, error)
	ListByTenant(ctx context.Context, tenantID string, page repository.Page) ([]model.Booking, error)
	ListByLandlord(ctx context.Context, landlordID string, page repository.Page) ([]model.Booking, error)
	ListAll(ctx context.Context, page repository.Page) ([]model.Booking, error)
}

// TokenStore is implemented by repository.TokenRepo.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
