package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered       EventType = "account_registered"
	EventAccountSignedIn         EventType = "account_signed_in"
	EventPasswordResetRequested  EventType = "password_reset_requested"
	EventPasswordResetRolledBack EventType = "password_reset_rolled_back"
	EventPasswordChanged         EventType = "password_changed"
	EventExternalLogin           EventType = "external_login"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, accountID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	Reason string `json:"reason"`
}

// ExternalLoginPayload payload.
type ExternalLoginPayload struct {
	Provider string `json:"provider"`
	Created  bool   `json:"created"`
	LookupBy string `json:"lookup_by"`
}
