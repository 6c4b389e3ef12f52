package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/naturebeauty/storefront-api/internal/domain"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

// Allowed reports whether role is in the allow-set.
func Allowed(allowed map[domain.Role]struct{}, role domain.Role) bool {
	_, ok := allowed[role]
	return ok
}

// RestrictTo lets through only authenticated accounts holding one of the roles.
// It must run after Gate.Protect.
func RestrictTo(roles ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		account, ok := AccountFromContext(c)
		if !ok || !Allowed(allowedSet, account.Role) {
			return apperrors.ErrForbidden
		}
		return c.Next()
	}
}
