package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", Unauthenticated("missing bearer token"), http.StatusUnauthorized},
		{"expired", Expired(), http.StatusUnauthorized},
		{"malformed", Malformed(errors.New("bad sig")), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"not found", NotFound("listing"), http.StatusNotFound},
		{"invalid input", InvalidInput("status", "bad"), http.StatusBadRequest},
		{"invalid date range", InvalidDateRange("start must be before end"), http.StatusBadRequest},
		{"invalid reference", InvalidReference("listing_id"), http.StatusBadRequest},
		{"conflict", Conflict("dates unavailable"), http.StatusConflict},
		{"internal", Internal(errors.New("db down")), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("load: %w", ErrNotFound), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestTokenKindsAreUnauthenticated(t *testing.T) {
	assert.ErrorIs(t, Expired(), ErrExpired)
	assert.ErrorIs(t, Expired(), ErrUnauthenticated)
	assert.ErrorIs(t, Malformed(errors.New("x")), ErrMalformed)
	assert.ErrorIs(t, Malformed(nil), ErrUnauthenticated)
	assert.NotErrorIs(t, Expired(), ErrMalformed)
}

func TestAs(t *testing.T) {
	assert.Equal(t, "TOKEN_EXPIRED", As(ErrExpired).Code)
	assert.Equal(t, "NOT_FOUND", As(fmt.Errorf("x: %w", ErrNotFound)).Code)
	internal := As(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", internal.Code)
	assert.ErrorIs(t, internal, ErrInternal)

	orig := Conflict("dates unavailable")
	assert.Same(t, orig, As(fmt.Errorf("wrap: %w", orig)))
}
