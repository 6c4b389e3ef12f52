package domain

import "time"

// Role is the authorization level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is a storefront customer or administrator.
type Account struct {
	ID                   string
	Username             string
	Email                string
	PasswordHash         string `json:"-"`
	Role                 Role
	PhotoURL             string
	Provider             string
	ProviderID           string
	PasswordChangedAt    *time.Time
	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ChangedPasswordAfter reports whether the password was changed after the given token issue time.
// Comparison is done at second precision, matching the resolution of token timestamps.
func (a *Account) ChangedPasswordAfter(issuedAt time.Time) bool {
	if a.PasswordChangedAt == nil {
		return false
	}
	return a.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// SetResetToken records a pending reset. Both fields are always set together.
func (a *Account) SetResetToken(hash string, expires time.Time) {
	a.PasswordResetToken = hash
	a.PasswordResetExpires = &expires
}

// ClearResetToken drops any pending reset.
func (a *Account) ClearResetToken() {
	a.PasswordResetToken = ""
	a.PasswordResetExpires = nil
}
