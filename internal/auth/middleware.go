package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/naturebeauty/storefront-api/internal/domain"
	"github.com/naturebeauty/storefront-api/internal/repository"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

const accountKey = "auth_account"

// Gate authenticates requests carrying a bearer token.
type Gate struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
}

// NewGate constructs the gate.
func NewGate(tokens *TokenManager, accounts repository.AccountRepository) *Gate {
	return &Gate{tokens: tokens, accounts: accounts}
}

// Authenticate resolves the account behind the request token. Both Protect and
// Optional rely on it and differ only in what they do with the error.
func (g *Gate) Authenticate(c *fiber.Ctx) (*domain.Account, error) {
	raw := extractToken(c)
	if raw == "" || raw == "null" {
		return nil, apperrors.ErrUnauthenticated
	}

	token, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthenticated, err)
	}

	account, err := g.accounts.GetByID(c.UserContext(), token.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountGone
		}
		return nil, apperrors.MapError(err)
	}

	if account.ChangedPasswordAfter(token.IssuedAt) {
		return nil, apperrors.ErrStalePassword
	}
	return account, nil
}

// Protect rejects requests that do not carry a valid token for a live account.
func (g *Gate) Protect(c *fiber.Ctx) error {
	account, err := g.Authenticate(c)
	if err != nil {
		return err
	}
	c.Locals(accountKey, account)
	return c.Next()
}

// Optional attaches the account when the request is authenticated and
// otherwise proceeds anonymously. Errors are never surfaced.
func (g *Gate) Optional(c *fiber.Ctx) error {
	if account, err := g.Authenticate(c); err == nil {
		c.Locals(accountKey, account)
	}
	return c.Next()
}

// AccountFromContext retrieves the authenticated account.
func AccountFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	val := c.Locals(accountKey)
	if val == nil {
		return nil, false
	}
	account, ok := val.(*domain.Account)
	return account, ok && account != nil
}

// extractToken prefers the session cookie and falls back to the Authorization header.
func extractToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(CookieName); cookie != "" {
		return cookie
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer") {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
