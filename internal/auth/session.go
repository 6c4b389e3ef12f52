package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/naturebeauty/storefront-api/internal/domain"
)

// CookieName carries the bearer token between browser and API.
const CookieName = "jwt"

const (
	loggedOutValue = "loggedout"
	loggedOutTTL   = 10 * time.Second
)

// Session is a minted bearer token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// SessionIssuer turns accounts into session artifacts.
type SessionIssuer struct {
	tokens   *TokenManager
	sameSite string
	now      func() time.Time
}

// NewSessionIssuer builds an issuer; sameSite is one of lax, strict or none.
func NewSessionIssuer(tokens *TokenManager, sameSite string) *SessionIssuer {
	return &SessionIssuer{tokens: tokens, sameSite: normalizeSameSite(sameSite), now: time.Now}
}

// Issue mints a token for the account.
func (i *SessionIssuer) Issue(account *domain.Account) (*Session, error) {
	token, exp, err := i.tokens.Mint(account.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}

// Clear returns the sign-out artifact that overwrites the client copy.
func (i *SessionIssuer) Clear() *Session {
	return &Session{Token: loggedOutValue, ExpiresAt: i.now().Add(loggedOutTTL)}
}

// Cookie wraps a session for transport. secure is set when the request arrived over TLS.
func (i *SessionIssuer) Cookie(s *Session, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: i.sameSite,
	}
}

// IsSecure reports whether the request reached us over TLS, directly or via a proxy.
func IsSecure(c *fiber.Ctx) bool {
	return c.Secure() || strings.EqualFold(c.Get(fiber.HeaderXForwardedProto), "https")
}

func normalizeSameSite(v string) string {
	switch strings.ToLower(v) {
	case "strict":
		return fiber.CookieSameSiteStrictMode
	case "none":
		return fiber.CookieSameSiteNoneMode
	default:
		return fiber.CookieSameSiteLaxMode
	}
}
