package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/naturebeauty/storefront-api/internal/auth"
	"github.com/naturebeauty/storefront-api/internal/oauth"
	"github.com/naturebeauty/storefront-api/internal/service"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

// OAuthHandler drives external-identity login.
type OAuthHandler struct {
	auth      *service.AuthService
	providers oauth.Registry
	states    *oauth.StateStore
	clientURL string
	logger    *zap.Logger
}

// NewOAuthHandler constructs handler. clientURL is where the browser lands after the callback.
func NewOAuthHandler(authService *service.AuthService, providers oauth.Registry, states *oauth.StateStore, clientURL string, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		auth:      authService,
		providers: providers,
		states:    states,
		clientURL: clientURL,
		logger:    logger,
	}
}

// Start handles GET /auth/:provider.
func (h *OAuthHandler) Start(c *fiber.Ctx) error {
	name := strings.ToLower(c.Params("provider"))
	provider, err := h.providers.Get(name)
	if err != nil {
		return apperrors.NewNotFound("oauth provider", map[string]any{"provider": name})
	}

	state, err := h.states.Issue(c.UserContext(), name)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// Callback handles GET /auth/:provider/callback.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	name := strings.ToLower(c.Params("provider"))
	provider, err := h.providers.Get(name)
	if err != nil {
		return apperrors.NewNotFound("oauth provider", map[string]any{"provider": name})
	}
	if reason := c.Query("error"); reason != "" {
		h.logger.Info("oauth consent denied", zap.String("provider", name), zap.String("reason", reason))
		return h.fail(c, "access_denied")
	}

	ctx := c.UserContext()
	if err := h.states.Consume(ctx, c.Query("state"), name); err != nil {
		if !errors.Is(err, oauth.ErrInvalidState) {
			h.logger.Error("oauth state lookup failed", zap.String("provider", name), zap.Error(err))
		}
		return h.fail(c, "state_invalid")
	}

	profile, err := provider.Profile(ctx, c.Query("code"))
	if err != nil {
		h.logger.Warn("oauth profile fetch failed", zap.String("provider", name), zap.Error(err))
		return h.fail(c, "profile_fetch_failed")
	}

	res, err := h.auth.ExternalLogin(ctx, profile)
	if err != nil {
		h.logger.Error("external login failed", zap.String("provider", name), zap.Error(err))
		return h.fail(c, "login_failed")
	}
	if res != nil {
		c.Cookie(h.auth.Sessions().Cookie(res.Session, auth.IsSecure(c)))
	}
	return c.Redirect(h.clientURL, fiber.StatusFound)
}

func (h *OAuthHandler) fail(c *fiber.Ctx, code string) error {
	target := h.clientURL
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return c.Redirect(target+sep+url.Values{"oauth_error": {code}}.Encode(), fiber.StatusFound)
}
