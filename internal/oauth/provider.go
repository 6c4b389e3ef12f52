package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/naturebeauty/storefront-api/internal/config"
	"github.com/naturebeauty/storefront-api/internal/domain"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	githubUserURL     = "https://api.github.com/user"

	maxProfileBytes = 1 << 20
)

// ErrUnknownProvider is returned for providers that are not configured.
var ErrUnknownProvider = errors.New("oauth provider not configured")

// DecodeFunc maps a userinfo response body to an external profile.
type DecodeFunc func(body []byte) (*domain.ExternalProfile, error)

// Provider drives the authorization-code flow against one identity provider.
type Provider struct {
	name        string
	conf        *oauth2.Config
	userInfoURL string
	decode      DecodeFunc
}

// NewProvider assembles a provider from its parts.
func NewProvider(name string, conf *oauth2.Config, userInfoURL string, decode DecodeFunc) *Provider {
	return &Provider{name: name, conf: conf, userInfoURL: userInfoURL, decode: decode}
}

// NewGoogle builds the Google provider.
func NewGoogle(cfg config.OAuthProvider) *Provider {
	return NewProvider(ProviderGoogle, &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "email", "profile"},
	}, googleUserInfoURL, decodeGoogle)
}

// NewGitHub builds the GitHub provider.
func NewGitHub(cfg config.OAuthProvider) *Provider {
	return NewProvider(ProviderGitHub, &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoints.GitHub,
		Scopes:       []string{"read:user", "user:email"},
	}, githubUserURL, decodeGitHub)
}

// Name returns the provider identifier used in routes and stored on accounts.
func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL returns the consent page URL for state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// Profile exchanges code for a token and fetches the caller's profile.
func (p *Provider) Profile(ctx context.Context, code string) (*domain.ExternalProfile, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	profile, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	profile.Provider = p.name
	return profile, nil
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func decodeGoogle(body []byte) (*domain.ExternalProfile, error) {
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, errors.New("missing subject")
	}
	return &domain.ExternalProfile{
		ID:          info.Sub,
		DisplayName: info.Name,
		Emails:      values(info.Email),
		Photos:      values(info.Picture),
	}, nil
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func decodeGitHub(body []byte) (*domain.ExternalProfile, error) {
	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, errors.New("missing user id")
	}
	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &domain.ExternalProfile{
		ID:          strconv.FormatInt(user.ID, 10),
		DisplayName: name,
		Emails:      values(user.Email),
		Photos:      values(user.AvatarURL),
	}, nil
}

// values keeps absent fields as a nil list so lookups fall back to the provider id.
func values(v string) []domain.ProfileValue {
	if v == "" {
		return nil
	}
	return []domain.ProfileValue{{Value: v}}
}

// Registry indexes configured providers by name.
type Registry map[string]*Provider

// NewRegistry registers every provider that has credentials.
func NewRegistry(cfg config.OAuthConfig) Registry {
	r := Registry{}
	if cfg.Google.Enabled() {
		r.Add(NewGoogle(cfg.Google))
	}
	if cfg.GitHub.Enabled() {
		r.Add(NewGitHub(cfg.GitHub))
	}
	return r
}

// Add registers p under its name.
func (r Registry) Add(p *Provider) {
	r[p.Name()] = p
}

// Get looks up a provider.
func (r Registry) Get(name string) (*Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}
