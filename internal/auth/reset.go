package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/naturebeauty/storefront-api/internal/domain"
	"github.com/naturebeauty/storefront-api/internal/repository"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

const resetSecretBytes = 32

// ResetTokens manages the single-use password reset secret stored on an account.
type ResetTokens struct {
	accounts repository.AccountRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewResetTokens builds the lifecycle. A non-positive ttl falls back to 10 minutes.
func NewResetTokens(accounts repository.AccountRepository, ttl time.Duration) *ResetTokens {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResetTokens{accounts: accounts, ttl: ttl, now: time.Now}
}

// Issue stores the hash of a fresh secret on the account and returns the plaintext.
// The plaintext is never persisted.
func (r *ResetTokens) Issue(ctx context.Context, account *domain.Account) (string, error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(buf)

	account.SetResetToken(HashResetToken(secret), r.now().Add(r.ttl))
	if err := r.accounts.Update(ctx, account); err != nil {
		account.ClearResetToken()
		return "", err
	}
	return secret, nil
}

// Consume finds the account holding an unexpired reset for secret. Wrong and
// expired secrets fail identically. The caller clears the reset fields when it
// saves the new password.
func (r *ResetTokens) Consume(ctx context.Context, secret string) (*domain.Account, error) {
	if secret == "" {
		return nil, apperrors.ErrInvalidOrExpiredToken
	}
	account, err := r.accounts.GetByResetToken(ctx, HashResetToken(secret), r.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidOrExpiredToken
		}
		return nil, err
	}
	return account, nil
}

// Revoke clears a pending reset, used when the secret could not be delivered.
func (r *ResetTokens) Revoke(ctx context.Context, account *domain.Account) error {
	account.ClearResetToken()
	return r.accounts.Update(ctx, account)
}
