// Package session holds the two ways a caller becomes an identity: password
// login and OAuth sign-in. Both produce a model.Identity. OAuth sign-ins are
// additionally kept as provider-managed sessions in Redis until the client
// trades them for a bearer token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/utils"
)

// StateTTL bounds how long an OAuth round trip may take.
const StateTTL = 10 * time.Minute

// Store keeps provider-managed sessions and OAuth state nonces in Redis.
type Store struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewStore returns a Store whose sessions live for ttl.
func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, prefix: "sess"}
}

func (s *Store) sessionKey(sid string) string { return s.prefix + ":sid:" + sid }
func (s *Store) stateKey(state string) string { return s.prefix + ":state:" + state }

// Create stores id under a fresh random session id.
func (s *Store) Create(ctx context.Context, id model.Identity) (string, error) {
	sid, err := utils.RandomHex(32)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, s.sessionKey(sid), b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

// Get loads the identity of a live session. Unknown and expired sessions
// are Unauthenticated.
func (s *Store) Get(ctx context.Context, sid string) (model.Identity, error) {
	if sid == "" {
		return model.Identity{}, apperrors.Unauthenticated("no session")
	}
	b, err := s.rdb.Get(ctx, s.sessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Identity{}, apperrors.Unauthenticated("session expired")
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("load session: %w", err)
	}
	var id model.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return model.Identity{}, apperrors.Unauthenticated("session corrupt")
	}
	return id, nil
}

// Delete ends a session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, s.sessionKey(sid)).Err()
}

// SaveState remembers an OAuth state nonce for provider.
func (s *Store) SaveState(ctx context.Context, state, provider string) error {
	return s.rdb.Set(ctx, s.stateKey(state), provider, StateTTL).Err()
}

// ConsumeState returns the provider a state nonce was issued for and deletes
// it, so each nonce is accepted once.
func (s *Store) ConsumeState(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", apperrors.Unauthenticated("missing oauth state")
	}
	provider, err := s.rdb.GetDel(ctx, s.stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.Unauthenticated("unknown or expired oauth state")
	}
	if err != nil {
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	return provider, nil
}
