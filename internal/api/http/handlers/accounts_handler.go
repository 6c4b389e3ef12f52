package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/naturebeauty/storefront-api/internal/api/dto"
	"github.com/naturebeauty/storefront-api/internal/auth"
	"github.com/naturebeauty/storefront-api/internal/service"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

const resetPath = "/api/v1/accounts/resetPassword/"

// AccountsHandler exposes the account auth endpoints.
type AccountsHandler struct {
	auth *service.AuthService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(authService *service.AuthService) *AccountsHandler {
	return &AccountsHandler{auth: authService}
}

// SignUp handles POST /api/v1/accounts/signup.
func (h *AccountsHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.auth.SignUp(c.UserContext(), service.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusCreated, res)
}

// SignIn handles POST /api/v1/accounts/login.
func (h *AccountsHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, res)
}

// SignOut handles GET /api/v1/accounts/logout.
func (h *AccountsHandler) SignOut(c *fiber.Ctx) error {
	c.Cookie(h.auth.Sessions().Cookie(h.auth.SignOut(), auth.IsSecure(c)))
	return c.JSON(dto.Envelope{Status: "success"})
}

// ForgotPassword handles POST /api/v1/accounts/forgotPassword.
func (h *AccountsHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	base := c.Protocol() + "://" + c.Hostname() + resetPath
	err := h.auth.ForgotPassword(c.UserContext(), req.Email, func(secret string) string {
		return base + secret
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Message("Token sent to email!"))
}

// ResetPassword handles PATCH /api/v1/accounts/resetPassword/:token.
func (h *AccountsHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.auth.ResetPassword(c.UserContext(), c.Params("token"), req.Password)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, res)
}

// UpdatePassword handles PATCH /api/v1/accounts/updateMyPassword.
func (h *AccountsHandler) UpdatePassword(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.auth.UpdatePassword(c.UserContext(), account.ID, req.PasswordCurrent, req.NewPassword)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, res)
}

// Me handles GET /api/v1/accounts/me.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	return c.JSON(dto.Success(account))
}

// GetAccount handles GET /api/v1/accounts/:id.
func (h *AccountsHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.auth.GetAccount(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.Success(account))
}

func (h *AccountsHandler) sendSession(c *fiber.Ctx, status int, res *service.AuthResult) error {
	c.Cookie(h.auth.Sessions().Cookie(res.Session, auth.IsSecure(c)))
	return c.Status(status).JSON(dto.WithToken(res.Session.Token, res.Account))
}
