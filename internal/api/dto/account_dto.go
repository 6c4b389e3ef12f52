package dto

import (
	"time"

	"github.com/naturebeauty/storefront-api/internal/domain"
)

// SignUpRequest payload for POST /signup.
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest payload for POST /login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest payload for POST /forgotPassword.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload for PATCH /resetPassword/:token.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// UpdatePasswordRequest payload for PATCH /updateMyPassword.
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	NewPassword     string `json:"newPassword"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email,omitempty"`
	Role              string     `json:"role"`
	PhotoURL          string     `json:"photo,omitempty"`
	Provider          string     `json:"provider,omitempty"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// AccountData wraps an account under data.
type AccountData struct {
	Account *AccountResponse `json:"account"`
}

// Envelope is the standard success body.
type Envelope struct {
	Status  string       `json:"status"`
	Token   string       `json:"token,omitempty"`
	Data    *AccountData `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

// NewAccountResponse maps an account. Nil stays nil.
func NewAccountResponse(a *domain.Account) *AccountResponse {
	if a == nil {
		return nil
	}
	return &AccountResponse{
		ID:                a.ID,
		Username:          a.Username,
		Email:             a.Email,
		Role:              string(a.Role),
		PhotoURL:          a.PhotoURL,
		Provider:          a.Provider,
		PasswordChangedAt: a.PasswordChangedAt,
		CreatedAt:         a.CreatedAt,
	}
}

// Success builds a body without a token.
func Success(a *domain.Account) Envelope {
	return Envelope{Status: "success", Data: &AccountData{Account: NewAccountResponse(a)}}
}

// WithToken builds a body for flows that sign the caller in.
func WithToken(token string, a *domain.Account) Envelope {
	env := Success(a)
	env.Token = token
	return env
}

// Message builds a body carrying only a message.
func Message(msg string) Envelope {
	return Envelope{Status: "success", Message: msg}
}
