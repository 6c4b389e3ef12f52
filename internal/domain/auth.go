package domain

import "time"

// Token describes a verified bearer credential.
type Token struct {
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
