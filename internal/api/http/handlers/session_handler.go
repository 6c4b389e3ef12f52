package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/naturebeauty/storefront-api/internal/api/dto"
	"github.com/naturebeauty/storefront-api/internal/auth"
)

// Session handles GET /api/v1/session behind the optional gate. Anonymous
// callers get a null account.
func Session(c *fiber.Ctx) error {
	account, _ := auth.AccountFromContext(c)
	return c.JSON(dto.Success(account))
}
