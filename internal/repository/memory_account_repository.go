package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/naturebeauty/storefront-api/internal/domain"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

// MemoryAccountRepository keeps accounts in process memory. It backs the service
// when no Postgres DSN is configured and doubles as the store in tests.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	now      func() time.Time
}

// NewMemoryAccountRepository builds an empty store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]domain.Account),
		now:      time.Now,
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account.Email != "" && r.findLocked(func(a domain.Account) bool { return a.Email == account.Email }) != nil {
		return apperrors.NewConflict("email already registered", nil)
	}
	if account.Role == "" {
		account.Role = domain.RoleUser
	}
	now := r.now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = cloneAccount(*account)
	return nil
}

func (r *MemoryAccountRepository) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if account.Email != "" {
		if other := r.findLocked(func(a domain.Account) bool { return a.Email == account.Email }); other != nil && other.ID != account.ID {
			return apperrors.NewConflict("email already registered", nil)
		}
	}
	account.UpdatedAt = r.now()
	next := cloneAccount(*account)
	if next.PasswordHash == "" {
		next.PasswordHash = stored.PasswordHash
	}
	r.accounts[account.ID] = next
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string, opts ...FindOption) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return project(a, applyFindOptions(opts)), nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string, opts ...FindOption) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a := r.findLocked(func(a domain.Account) bool { return email != "" && a.Email == email })
	if a == nil {
		return nil, pgx.ErrNoRows
	}
	return project(*a, applyFindOptions(opts)), nil
}

func (r *MemoryAccountRepository) GetByProviderID(_ context.Context, provider, providerID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a := r.findLocked(func(a domain.Account) bool {
		return providerID != "" && a.Provider == provider && a.ProviderID == providerID
	})
	if a == nil {
		return nil, pgx.ErrNoRows
	}
	return project(*a, findOptions{}), nil
}

func (r *MemoryAccountRepository) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a := r.findLocked(func(a domain.Account) bool {
		return tokenHash != "" &&
			a.PasswordResetToken == tokenHash &&
			a.PasswordResetExpires != nil &&
			a.PasswordResetExpires.After(now)
	})
	if a == nil {
		return nil, pgx.ErrNoRows
	}
	return project(*a, findOptions{}), nil
}

// Len returns the number of stored accounts.
func (r *MemoryAccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

func (r *MemoryAccountRepository) findLocked(match func(domain.Account) bool) *domain.Account {
	for _, a := range r.accounts {
		if match(a) {
			found := a
			return &found
		}
	}
	return nil
}

func project(a domain.Account, o findOptions) *domain.Account {
	out := cloneAccount(a)
	if !o.includePassword {
		out.PasswordHash = ""
	}
	return &out
}

func cloneAccount(a domain.Account) domain.Account {
	if a.PasswordChangedAt != nil {
		t := *a.PasswordChangedAt
		a.PasswordChangedAt = &t
	}
	if a.PasswordResetExpires != nil {
		t := *a.PasswordResetExpires
		a.PasswordResetExpires = &t
	}
	return a
}
