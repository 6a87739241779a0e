package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func ptr[T any](v T) *T { return &v }

var (
	userCols    = []string{"id", "name", "email", "password_hash", "role", "provider", "provider_subject", "is_active", "email_verified", "created_at", "last_login_at"}
	listingCols = []string{"id", "landlord_id", "title", "description", "price_cents", "location", "image_url", "created_at", "updated_at"}
	bookingCols = []string{"id", "listing_id", "tenant_id", "landlord_id", "start_date", "end_date", "total_price_cents", "notes", "status", "created_at", "updated_at"}
)

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", sqlmock.AnyArg(), "tenant", "credentials",
			nil, true, false, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	u := &model.User{Name: "Ada", Email: "  Ada@Example.com ", PasswordHash: ptr("$2a$hash"),
		Role: model.RoleTenant, Provider: model.ProviderCredentials, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.User{Email: "a@b.c", PasswordHash: ptr("h"),
		Role: model.RoleTenant, Provider: model.ProviderCredentials})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUserRepo_CreateDuplicateSubject(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062,
			Message: "Duplicate entry 'google-g-1' for key 'users.uq_users_provider_subject'"})

	err := repo.Create(context.Background(), &model.User{Email: "a@b.c", Role: model.RoleTenant,
		Provider: "google", ProviderSubject: ptr("g-1")})
	assert.ErrorIs(t, err, ErrSubjectExists)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUserRepo_CreateRejectsInvalidUser(t *testing.T) {
	db, _ := newMock(t)
	repo := NewUserRepo(db)

	err := repo.Create(context.Background(), &model.User{Email: "a@b.c", Role: model.RoleTenant, Provider: model.ProviderCredentials})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "Lena", "lena@example.com", nil, "landlord", "google", "g-1", true, true, created, nil))

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleLandlord, u.Role)
	assert.Nil(t, u.PasswordHash)
	require.NotNil(t, u.ProviderSubject)
	assert.Equal(t, "g-1", *u.ProviderSubject)
	assert.Nil(t, u.LastLoginAt)
	assert.Equal(t, created, u.CreatedAt)
}

func TestUserRepo_GetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByEmail(context.Background(), "Nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepo_SetActiveMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active=?")).WithArgs(false, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SetActive(context.Background(), "ghost", false), apperrors.ErrNotFound)
}

func TestListingRepo_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM listings WHERE location LIKE ? AND price_cents <= ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?")).
		WithArgs(`%50\%off%`, int64(5000), 20, 0).
		WillReturnRows(sqlmock.NewRows(listingCols).
			AddRow("l1", "u1", "Loft", "Bright", int64(4000), "Berlin 50%off", nil, now, now))

	out, err := repo.List(context.Background(), ListingFilter{Location: "50%off", MaxPriceCents: ptr(int64(5000))})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(4000), out[0].PriceCents)
	assert.Nil(t, out[0].ImageURL)
}

func TestListingRepo_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings SET")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Listing{ID: "missing", Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBookingRepo_InTxCommits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	now := time.Now().UTC()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM listings WHERE id=? FOR UPDATE")).WithArgs("l1").
		WillReturnRows(sqlmock.NewRows(listingCols).AddRow("l1", "owner", "Loft", "", int64(1000), "Berlin", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE listing_id=? AND status IN (?,?)")).
		WithArgs("l1", "pending", "confirmed").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow("b0", "l1", "t0", "owner", start, start.AddDate(0, 0, 2), int64(2000), nil, "confirmed", now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx BookingTx) error {
		l, err := tx.LockListing(context.Background(), "l1")
		if err != nil {
			return err
		}
		active, err := tx.ActiveForListing(context.Background(), l.ID)
		if err != nil {
			return err
		}
		if len(active) != 1 || active[0].Notes != "" || active[0].Status != model.BookingConfirmed {
			return errors.New("unexpected active set")
		}
		return tx.Create(context.Background(), &model.Booking{ListingID: l.ID, TenantID: "t1", LandlordID: l.LandlordID,
			StartDate: start.AddDate(0, 0, 3), EndDate: start.AddDate(0, 0, 4), Status: model.BookingPending})
	})
	require.NoError(t, err)
}

func TestBookingRepo_InTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(listingCols))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx BookingTx) error {
		_, err := tx.LockListing(context.Background(), "missing")
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBookingRepo_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	now := time.Now().UTC()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status=?")).
		WithArgs("cancelled", sqlmock.AnyArg(), "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id=?")).WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow("b1", "l1", "t1", "owner", start, start.AddDate(0, 0, 4), int64(4000), "late arrival", "cancelled", now, now))

	b, err := repo.UpdateStatus(context.Background(), "b1", model.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)
	assert.Equal(t, "late arrival", b.Notes)
	assert.Equal(t, int64(4), b.Range().Days())
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at").WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(time.Hour), nil))
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at").WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(time.Hour), time.Now()))
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at").WithArgs("stale").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", time.Now().Add(-time.Hour), nil))
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at").WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(cols))

	id, err := repo.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	for _, h := range []string{"revoked", "stale", "unknown"} {
		_, err := repo.ValidateRefresh(context.Background(), h)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated, h)
	}
}
