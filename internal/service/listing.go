package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-booking/internal/access"
	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// ListingInput creates a listing.
type ListingInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	PriceCents  int64   `json:"price_cents" validate:"gte=0"`
	Location    string  `json:"location" validate:"required,max=255"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

// ListingPatch updates a listing. Nil fields are left alone. There is no
// owner field: listings never change hands, which keeps the landlord
// recorded on their bookings accurate.
type ListingPatch struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

type ListingService struct {
	gate     *access.Gate
	listings ListingStore
}

func NewListingService(gate *access.Gate, listings ListingStore) *ListingService {
	return &ListingService{gate: gate, listings: listings}
}

// Create stores a listing owned by the calling landlord.
func (s *ListingService) Create(ctx context.Context, landlord model.User, in ListingInput) (model.Listing, error) {
	if err := s.gate.Authorize(landlord, model.RoleLandlord); err != nil {
		return model.Listing{}, err
	}
	l := model.Listing{
		LandlordID:  landlord.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Location:    strings.TrimSpace(in.Location),
		ImageURL:    in.ImageURL,
	}
	if err := validateListing(l); err != nil {
		return model.Listing{}, err
	}
	if err := s.listings.Create(ctx, &l); err != nil {
		return model.Listing{}, err
	}
	return l, nil
}

// Update applies patch to a listing the caller owns.
func (s *ListingService) Update(ctx context.Context, landlord model.User, id string, patch ListingPatch) (model.Listing, error) {
	if err := s.gate.Authorize(landlord, model.RoleLandlord); err != nil {
		return model.Listing{}, err
	}
	l, err := s.Get(ctx, id)
	if err != nil {
		return model.Listing{}, err
	}
	if err := s.gate.AuthorizeListingOwner(landlord, l); err != nil {
		return model.Listing{}, err
	}

	if patch.Title != nil {
		l.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.PriceCents != nil {
		l.PriceCents = *patch.PriceCents
	}
	if patch.Location != nil {
		l.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.ImageURL != nil {
		l.ImageURL = patch.ImageURL
	}
	if err := validateListing(l); err != nil {
		return model.Listing{}, err
	}
	if err := s.listings.Update(ctx, &l); err != nil {
		return model.Listing{}, err
	}
	return l, nil
}

// Delete removes a listing. The owning landlord and admins may delete.
func (s *ListingService) Delete(ctx context.Context, user model.User, id string) error {
	if err := s.gate.AuthorizeAny(user, model.RoleLandlord, model.RoleAdmin); err != nil {
		return err
	}
	l, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != model.RoleAdmin {
		if err := s.gate.AuthorizeListingOwner(user, l); err != nil {
			return err
		}
	}
	return s.listings.Delete(ctx, l.ID)
}

// Get is public.
func (s *ListingService) Get(ctx context.Context, id string) (model.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Listing{}, apperrors.InvalidReference("id")
	}
	return s.listings.GetByID(ctx, id)
}

// List is public.
func (s *ListingService) List(ctx context.Context, f repository.ListingFilter) ([]model.Listing, error) {
	if f.MaxPriceCents != nil && *f.MaxPriceCents < 0 {
		return nil, apperrors.InvalidInput("max_price_cents", "must not be negative")
	}
	return s.listings.List(ctx, f)
}

func validateListing(l model.Listing) error {
	switch {
	case l.Title == "":
		return apperrors.InvalidInput("title", "is required")
	case l.Location == "":
		return apperrors.InvalidInput("location", "is required")
	case l.PriceCents < 0:
		return apperrors.InvalidInput("price_cents", "must not be negative")
	}
	return nil
}
