package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/naturebeauty/storefront-api/internal/auth"
	"github.com/naturebeauty/storefront-api/internal/config"
	"github.com/naturebeauty/storefront-api/internal/domain"
	"github.com/naturebeauty/storefront-api/internal/events"
	"github.com/naturebeauty/storefront-api/internal/mail"
	"github.com/naturebeauty/storefront-api/internal/repository"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

const (
	minPasswordLength  = 8
	resetMailSubject   = "NatureBeauty.com.vn - Reset your password"
	passwordChangeSkew = time.Second
)

// AuthResult is the outcome of a flow that signs the caller in.
type AuthResult struct {
	Account *domain.Account
	Session *auth.Session
}

// SignUpInput carries registration fields.
type SignUpInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks registration fields.
func (in SignUpInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(minPasswordLength, 0)),
	)
}

// AuthService coordinates sign-up, sign-in and password flows.
type AuthService struct {
	accounts      repository.AccountRepository
	tokens        *auth.TokenManager
	sessions      *auth.SessionIssuer
	resets        *auth.ResetTokens
	mailer        mail.Sender
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	bcryptCost    int
	defaultAvatar string
	now           func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Accounts   repository.AccountRepository
	Mailer     mail.Sender
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	return &AuthService{
		accounts:      deps.Accounts,
		tokens:        tokens,
		sessions:      auth.NewSessionIssuer(tokens, cfg.Auth.CookieSameSite),
		resets:        auth.NewResetTokens(deps.Accounts, cfg.Auth.PasswordResetTTL()),
		mailer:        deps.Mailer,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		bcryptCost:    cfg.Auth.BcryptCost,
		defaultAvatar: cfg.OAuth.DefaultAvatarURL,
		now:           time.Now,
	}
}

// SignUp creates an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.EventAccountRegistered, account.ID, nil))
	return s.signIn(account)
}

// SignIn authenticates by email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email), repository.WithPassword())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.ComparePassword(account.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	s.publish(ctx, events.New(events.EventAccountSignedIn, account.ID, nil))
	return s.signIn(account)
}

// SignOut returns the artifact that replaces the client's credential.
func (s *AuthService) SignOut() *auth.Session {
	return s.sessions.Clear()
}

// ForgotPassword issues a reset secret and mails it. resetURL renders the link
// for the plaintext secret. If the mail cannot be sent the pending reset is
// cleared again.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(secret string) string) error {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrAccountNotFound
		}
		return err
	}

	secret, err := s.resets.Issue(ctx, account)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password to: %s\n"+
		"The link is valid for a short time. If you didn't forget your password, please ignore this email.\n"+
		"Token: %s", resetURL(secret), secret)

	if sendErr := s.mailer.Send(ctx, account.Email, resetMailSubject, body); sendErr != nil {
		if err := s.resets.Revoke(ctx, account); err != nil {
			s.logger.Error("failed to roll back password reset", zap.String("account_id", account.ID), zap.Error(err))
		}
		s.publish(ctx, events.New(events.EventPasswordResetRolledBack, account.ID, nil))
		return apperrors.Wrap(apperrors.ErrDeliveryFailed, sendErr)
	}

	s.publish(ctx, events.New(events.EventPasswordResetRequested, account.ID, nil))
	return nil
}

// ResetPassword consumes a reset secret and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, secret, newPassword string) (*AuthResult, error) {
	account, err := s.resets.Consume(ctx, secret)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, account, newPassword); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.EventPasswordChanged, account.ID, events.PasswordChangedPayload{Reason: "reset"}))
	return s.signIn(account)
}

// UpdatePassword changes the password of an authenticated account.
func (s *AuthService) UpdatePassword(ctx context.Context, accountID, currentPassword, newPassword string) (*AuthResult, error) {
	account, err := s.accounts.GetByID(ctx, accountID, repository.WithPassword())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountGone
		}
		return nil, err
	}
	if !auth.ComparePassword(account.PasswordHash, currentPassword) {
		return nil, apperrors.ErrWrongCurrentPassword
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, account, newPassword); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.EventPasswordChanged, account.ID, events.PasswordChangedPayload{Reason: "update"}))
	return s.signIn(account)
}

// ExternalLogin signs in the local account matching an external identity,
// creating it on first login. A nil profile yields a nil result.
func (s *AuthService) ExternalLogin(ctx context.Context, profile *domain.ExternalProfile) (*AuthResult, error) {
	if profile == nil {
		return nil, nil
	}

	lookup := domain.LookupFor(*profile)
	account, err := s.findExternal(ctx, lookup)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		account, err = s.createExternal(ctx, *profile)
		if err != nil {
			return nil, err
		}
		created = true
	default:
		return nil, err
	}

	s.publish(ctx, events.New(events.EventExternalLogin, account.ID, events.ExternalLoginPayload{
		Provider: profile.Provider,
		Created:  created,
		LookupBy: lookup.Kind.String(),
	}))
	return s.signIn(account)
}

// GetAccount loads an account by id.
func (s *AuthService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", map[string]any{"id": id})
		}
		return nil, err
	}
	return account, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Sessions exposes the session issuer for handlers building cookies.
func (s *AuthService) Sessions() *auth.SessionIssuer {
	return s.sessions
}

func (s *AuthService) findExternal(ctx context.Context, lookup domain.AccountLookup) (*domain.Account, error) {
	switch lookup.Kind {
	case domain.LookupByEmail:
		return s.accounts.GetByEmail(ctx, lookup.Value)
	case domain.LookupByProviderID:
		return s.accounts.GetByProviderID(ctx, lookup.Provider, lookup.Value)
	default:
		return nil, fmt.Errorf("unknown lookup kind %d", lookup.Kind)
	}
}

func (s *AuthService) createExternal(ctx context.Context, profile domain.ExternalProfile) (*domain.Account, error) {
	photo := profile.PrimaryPhoto()
	if photo == "" {
		photo = s.defaultAvatar
	}
	account := &domain.Account{
		Username:   profile.DisplayName,
		Email:      profile.PrimaryEmail(),
		Role:       domain.RoleUser,
		PhotoURL:   photo,
		Provider:   profile.Provider,
		ProviderID: profile.ID,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AuthService) setPassword(ctx context.Context, account *domain.Account, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	// backdated so the token issued right after is not considered stale
	changedAt := s.now().Add(-passwordChangeSkew)
	account.PasswordHash = hash
	account.PasswordChangedAt = &changedAt
	account.ClearResetToken()
	return s.accounts.Update(ctx, account)
}

func (s *AuthService) signIn(account *domain.Account) (*AuthResult, error) {
	session, err := s.sessions.Issue(account)
	if err != nil {
		return nil, err
	}
	account.PasswordHash = ""
	return &AuthResult{Account: account, Session: session}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func validatePassword(password string) error {
	err := validation.Validate(password, validation.Required, validation.Length(minPasswordLength, 0))
	if err != nil {
		return apperrors.NewValidationError("invalid password", map[string]any{"password": err.Error()})
	}
	return nil
}

func validationError(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for field, ferr := range verrs {
		details[field] = ferr.Error()
	}
	return apperrors.NewValidationError("invalid input", details)
}
