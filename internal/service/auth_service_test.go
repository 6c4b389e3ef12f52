package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naturebeauty/storefront-api/internal/auth"
	"github.com/naturebeauty/storefront-api/internal/config"
	"github.com/naturebeauty/storefront-api/internal/domain"
	"github.com/naturebeauty/storefront-api/internal/events"
	"github.com/naturebeauty/storefront-api/internal/repository"
	apperrors "github.com/naturebeauty/storefront-api/pkg/util/errorutil"
)

type sentMail struct {
	to, subject, body string
}

type recordingSender struct {
	sent []sentMail
	err  error
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fixture struct {
	svc      *AuthService
	repo     *repository.MemoryAccountRepository
	mailer   *recordingSender
	received []events.EventType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Config{
		Auth:  config.AuthConfig{JWTSecret: "test-secret", BcryptCost: 4},
		OAuth: config.OAuthConfig{DefaultAvatarURL: "https://cdn.example.com/default.png"},
	}
	f := &fixture{repo: repository.NewMemoryAccountRepository(), mailer: &recordingSender{}}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.received = append(f.received, e.Type)
		return nil
	}
	dispatcher.Subscribe(record,
		events.EventAccountRegistered,
		events.EventAccountSignedIn,
		events.EventPasswordResetRequested,
		events.EventPasswordResetRolledBack,
		events.EventPasswordChanged,
		events.EventExternalLogin,
	)
	f.svc = NewAuthService(cfg, AuthDependencies{
		Accounts:   f.repo,
		Mailer:     f.mailer,
		Dispatcher: dispatcher,
	})
	return f
}

func (f *fixture) signUp(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.SignUp(context.Background(), SignUpInput{Username: "ann", Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func resetURL(secret string) string {
	return "https://shop.example.com/api/v1/accounts/resetPassword/" + secret
}

var secretPattern = regexp.MustCompile(`resetPassword/([0-9a-f]{64})`)

func TestSignUpIssuesSession(t *testing.T) {
	f := newFixture(t)

	res := f.signUp(t, "ann@x.io", "pa55word!")

	require.NotNil(t, res.Session)
	assert.NotEmpty(t, res.Session.Token)
	assert.Empty(t, res.Account.PasswordHash)
	assert.Equal(t, domain.RoleUser, res.Account.Role)

	tok, err := f.svc.TokenManager().Verify(res.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, tok.SubjectID)

	stored, err := f.repo.GetByID(context.Background(), res.Account.ID, repository.WithPassword())
	require.NoError(t, err)
	assert.NotEqual(t, "pa55word!", stored.PasswordHash)
	assert.True(t, auth.ComparePassword(stored.PasswordHash, "pa55word!"))
	assert.Contains(t, f.received, events.EventAccountRegistered)
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SignUp(context.Background(), SignUpInput{Username: "", Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, de.Code)
	assert.Contains(t, de.Details, "username")
	assert.Contains(t, de.Details, "email")
	assert.Contains(t, de.Details, "password")
	assert.Zero(t, f.repo.Len())
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ann@x.io", "pa55word!")

	_, err := f.svc.SignUp(context.Background(), SignUpInput{Username: "bob", Email: "ann@x.io", Password: "pa55word!"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.ToDomainError(err).Code)
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ann@x.io", "pa55word!")
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, "ann@x.io", "pa55word!")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.Token)
	assert.Empty(t, res.Account.PasswordHash)

	_, err = f.svc.SignIn(ctx, "ann@x.io", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.SignIn(ctx, "nobody@x.io", "pa55word!")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.SignIn(ctx, "ann@x.io", "")
	assert.ErrorIs(t, err, apperrors.ErrMissingCredentials)

	_, err = f.svc.SignIn(ctx, "", "pa55word!")
	assert.ErrorIs(t, err, apperrors.ErrMissingCredentials)
}

func TestSignInRejectsExternalAccountWithoutPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExternalLogin(context.Background(), &domain.ExternalProfile{
		ID: "g-1", DisplayName: "Ann", Provider: "google",
		Emails: []domain.ProfileValue{{Value: "ann@x.io"}},
	})
	require.NoError(t, err)

	_, err = f.svc.SignIn(context.Background(), "ann@x.io", "anything")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSignOut(t *testing.T) {
	f := newFixture(t)
	s := f.svc.SignOut()
	assert.Equal(t, "loggedout", s.Token)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	signedUp := f.signUp(t, "ann@x.io", "pa55word!")
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, "ann@x.io", resetURL))
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ann@x.io", f.mailer.sent[0].to)

	m := secretPattern.FindStringSubmatch(f.mailer.sent[0].body)
	require.Len(t, m, 2)
	secret := m[1]

	stored, err := f.repo.GetByID(ctx, signedUp.Account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, secret, stored.PasswordResetToken)
	assert.Equal(t, auth.HashResetToken(secret), stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)

	res, err := f.svc.ResetPassword(ctx, secret, "n3wpassword")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.Token)

	stored, err = f.repo.GetByID(ctx, signedUp.Account.ID, repository.WithPassword())
	require.NoError(t, err)
	assert.Empty(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.True(t, auth.ComparePassword(stored.PasswordHash, "n3wpassword"))

	// the fresh token must survive the stale-password check
	tok, err := f.svc.TokenManager().Verify(res.Session.Token)
	require.NoError(t, err)
	assert.False(t, stored.ChangedPasswordAfter(tok.IssuedAt))

	_, err = f.svc.ResetPassword(ctx, secret, "an0therpass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	_, err = f.svc.SignIn(ctx, "ann@x.io", "pa55word!")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.svc.SignIn(ctx, "ann@x.io", "n3wpassword")
	assert.NoError(t, err)

	assert.Contains(t, f.received, events.EventPasswordResetRequested)
	assert.Contains(t, f.received, events.EventPasswordChanged)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ForgotPassword(context.Background(), "nobody@x.io", resetURL)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	assert.Empty(t, f.mailer.sent)
}

func TestForgotPasswordDeliveryFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	signedUp := f.signUp(t, "ann@x.io", "pa55word!")
	f.mailer.err = errors.New("smtp unavailable")
	ctx := context.Background()

	err := f.svc.ForgotPassword(ctx, "ann@x.io", resetURL)
	require.ErrorIs(t, err, apperrors.ErrDeliveryFailed)

	stored, err := f.repo.GetByID(ctx, signedUp.Account.ID, repository.WithPassword())
	require.NoError(t, err)
	assert.Empty(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)
	assert.True(t, auth.ComparePassword(stored.PasswordHash, "pa55word!"))
	assert.Contains(t, f.received, events.EventPasswordResetRolledBack)
}

func TestResetPasswordRejectsUnknownSecret(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ann@x.io", "pa55word!")

	_, err := f.svc.ResetPassword(context.Background(), "deadbeef", "n3wpassword")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	_, err = f.svc.ResetPassword(context.Background(), "", "n3wpassword")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	signedUp := f.signUp(t, "ann@x.io", "pa55word!")
	ctx := context.Background()

	_, err := f.svc.UpdatePassword(ctx, signedUp.Account.ID, "wrong", "n3wpassword")
	assert.ErrorIs(t, err, apperrors.ErrWrongCurrentPassword)

	_, err = f.svc.UpdatePassword(ctx, signedUp.Account.ID, "pa55word!", "short")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)

	res, err := f.svc.UpdatePassword(ctx, signedUp.Account.ID, "pa55word!", "n3wpassword")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.Token)

	_, err = f.svc.SignIn(ctx, "ann@x.io", "n3wpassword")
	assert.NoError(t, err)

	_, err = f.svc.UpdatePassword(ctx, "missing", "pa55word!", "n3wpassword")
	assert.ErrorIs(t, err, apperrors.ErrAccountGone)
}

func TestExternalLoginCreatesThenReuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := &domain.ExternalProfile{
		ID:          "g-42",
		DisplayName: "Ann Example",
		Provider:    "google",
		Emails:      []domain.ProfileValue{{Value: "ann@x.io"}},
	}

	first, err := f.svc.ExternalLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, "Ann Example", first.Account.Username)
	assert.Equal(t, "https://cdn.example.com/default.png", first.Account.PhotoURL)
	assert.Equal(t, "google", first.Account.Provider)
	assert.Equal(t, "g-42", first.Account.ProviderID)
	assert.NotEmpty(t, first.Session.Token)

	second, err := f.svc.ExternalLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.Account.ID, second.Account.ID)
	assert.Equal(t, 1, f.repo.Len())
}

func TestExternalLoginMatchesExistingLocalAccountByEmail(t *testing.T) {
	f := newFixture(t)
	local := f.signUp(t, "ann@x.io", "pa55word!")

	res, err := f.svc.ExternalLogin(context.Background(), &domain.ExternalProfile{
		ID: "gh-7", DisplayName: "ann", Provider: "github",
		Emails: []domain.ProfileValue{{Value: "ann@x.io"}},
	})
	require.NoError(t, err)
	assert.Equal(t, local.Account.ID, res.Account.ID)
	assert.Equal(t, 1, f.repo.Len())
}

func TestExternalLoginWithoutEmailUsesProviderID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := &domain.ExternalProfile{
		ID:          "gh-9",
		DisplayName: "octo",
		Provider:    "github",
		Photos:      []domain.ProfileValue{{Value: "https://avatars.example.com/9"}},
	}

	first, err := f.svc.ExternalLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, "https://avatars.example.com/9", first.Account.PhotoURL)
	assert.Empty(t, first.Account.Email)

	second, err := f.svc.ExternalLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.Account.ID, second.Account.ID)
}

func TestExternalLoginNilProfile(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.ExternalLogin(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Zero(t, f.repo.Len())
}

func TestGetAccount(t *testing.T) {
	f := newFixture(t)
	signedUp := f.signUp(t, "ann@x.io", "pa55word!")

	acc, err := f.svc.GetAccount(context.Background(), signedUp.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.io", acc.Email)

	_, err = f.svc.GetAccount(context.Background(), "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}
