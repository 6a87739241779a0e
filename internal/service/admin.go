package service

import (
	"context"

	"github.com/iliyamo/rental-booking/internal/access"
	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// AdminService covers user oversight. Every call requires the admin role.
type AdminService struct {
	gate    *access.Gate
	users   UserStore
	refresh TokenStore
}

func NewAdminService(gate *access.Gate, users UserStore, refresh TokenStore) *AdminService {
	return &AdminService{gate: gate, users: users, refresh: refresh}
}

func (s *AdminService) ListUsers(ctx context.Context, admin model.User, page repository.Page) ([]model.User, error) {
	if err := s.gate.Authorize(admin, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.List(ctx, page)
}

// DeactivateUser blocks an account and revokes its refresh tokens. Bearer
// tokens already issued stop working at the next request because the gate
// reads the live record.
func (s *AdminService) DeactivateUser(ctx context.Context, admin model.User, id string) error {
	if err := s.gate.Authorize(admin, model.RoleAdmin); err != nil {
		return err
	}
	if id == admin.ID {
		return apperrors.InvalidInput("id", "cannot deactivate your own account")
	}
	if err := s.users.SetActive(ctx, id, false); err != nil {
		return err
	}
	return s.refresh.RevokeAllForUser(ctx, id)
}

// DeleteUser removes an account. Bookings referencing it are kept.
func (s *AdminService) DeleteUser(ctx context.Context, admin model.User, id string) error {
	if err := s.gate.Authorize(admin, model.RoleAdmin); err != nil {
		return err
	}
	if id == admin.ID {
		return apperrors.InvalidInput("id", "cannot delete your own account")
	}
	return s.users.Delete(ctx, id)
}
