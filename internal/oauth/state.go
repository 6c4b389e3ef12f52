package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statePrefix = "oauth_state:"

// ErrInvalidState is returned for unknown, expired, reused or mismatched states.
var ErrInvalidState = errors.New("oauth state invalid")

// StateStore keeps pending authorization states in Redis. Each state is single use.
type StateStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStateStore builds a store. A non-positive ttl falls back to 10 minutes.
func NewStateStore(client redis.Cmdable, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{client: client, ttl: ttl}
}

// Issue creates a state bound to provider.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	state := uuid.NewString()
	if err := s.client.Set(ctx, statePrefix+state, provider, s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// Consume deletes state and checks that it was issued for provider.
func (s *StateStore) Consume(ctx context.Context, state, provider string) error {
	if state == "" {
		return ErrInvalidState
	}
	stored, err := s.client.GetDel(ctx, statePrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidState
		}
		return err
	}
	if stored != provider {
		return ErrInvalidState
	}
	return nil
}
