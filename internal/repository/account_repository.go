package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/naturebeauty/storefront-api/internal/domain"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

// AccountRepository defines persistence access for accounts.
// Lookups return pgx.ErrNoRows when nothing matches. Update keeps the stored
// password hash when the account carries an empty one, so accounts read without
// WithPassword can be saved safely.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string, opts ...FindOption) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string, opts ...FindOption) (*domain.Account, error)
	GetByProviderID(ctx context.Context, provider, providerID string) (*domain.Account, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.Account, error)
}

// FindOption tunes a single lookup.
type FindOption func(*findOptions)

type findOptions struct {
	includePassword bool
}

// WithPassword selects the password hash, which is excluded from reads by default.
func WithPassword() FindOption {
	return func(o *findOptions) { o.includePassword = true }
}

func applyFindOptions(opts []FindOption) findOptions {
	var o findOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

type accountRepository struct {
	db DB
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(db DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (username, email, password_hash, role, photo_url, provider, provider_id)
        VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
        RETURNING id, created_at, updated_at`

	if account.Role == "" {
		account.Role = domain.RoleUser
	}

	err := r.db.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.PhotoURL,
		account.Provider,
		account.ProviderID,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET username=$1, email=NULLIF($2, ''), password_hash=COALESCE(NULLIF($3, ''), password_hash), role=$4,
            photo_url=NULLIF($5, ''), provider=NULLIF($6, ''), provider_id=NULLIF($7, ''),
            password_changed_at=$8, password_reset_token=NULLIF($9, ''), password_reset_expires=$10,
            updated_at=NOW()
        WHERE id=$11`

	cmd, err := r.db.Exec(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.PhotoURL,
		account.Provider,
		account.ProviderID,
		account.PasswordChangedAt,
		account.PasswordResetToken,
		account.PasswordResetExpires,
		account.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string, opts ...FindOption) (*domain.Account, error) {
	return r.getOne(ctx, applyFindOptions(opts), "id=$1", id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string, opts ...FindOption) (*domain.Account, error) {
	return r.getOne(ctx, applyFindOptions(opts), "email=$1", email)
}

func (r *accountRepository) GetByProviderID(ctx context.Context, provider, providerID string) (*domain.Account, error) {
	return r.getOne(ctx, findOptions{}, "provider=$1 AND provider_id=$2", provider, providerID)
}

func (r *accountRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.Account, error) {
	return r.getOne(ctx, findOptions{}, "password_reset_token=$1 AND password_reset_expires > $2", tokenHash, now)
}

func (r *accountRepository) getOne(ctx context.Context, o findOptions, where string, args ...any) (*domain.Account, error) {
	passwordColumn := "''"
	if o.includePassword {
		passwordColumn = "COALESCE(password_hash, '')"
	}
	query := fmt.Sprintf(`
        SELECT id, username, COALESCE(email, ''), %s, role, COALESCE(photo_url, ''),
            COALESCE(provider, ''), COALESCE(provider_id, ''), password_changed_at,
            COALESCE(password_reset_token, ''), password_reset_expires, created_at, updated_at
        FROM accounts WHERE %s`, passwordColumn, where)

	var (
		account      domain.Account
		changedAt    sql.NullTime
		resetExpires sql.NullTime
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.PhotoURL,
		&account.Provider,
		&account.ProviderID,
		&changedAt,
		&account.PasswordResetToken,
		&resetExpires,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if changedAt.Valid {
		account.PasswordChangedAt = &changedAt.Time
	}
	if resetExpires.Valid {
		account.PasswordResetExpires = &resetExpires.Time
	}
	return &account, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.NewConflict("email already registered", map[string]any{"constraint": pgErr.ConstraintName})
	}
	return err
}
