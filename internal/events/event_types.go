package events

import (
	"time"

	"github.com/spec-kit/infonest-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventRegistrationFailed EventType = "registration_failed"
	EventLoginSucceeded     EventType = "login_succeeded"
	EventLoginFailed        EventType = "login_failed"
)

// Failure reasons carried by failure events.
const (
	ReasonDuplicateIdentity  = "duplicate_identity"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonTooManyAttempts    = "too_many_attempts"
	ReasonStoreUnavailable   = "store_unavailable"
)

// Event represents an authentication event emitted by the service.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	Subject    string      `json:"subject"`
	Role       domain.Role `json:"role,omitempty"`
	RemoteAddr string      `json:"remote_addr,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
