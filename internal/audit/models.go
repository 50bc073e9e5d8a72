package audit

import "time"

// Event is an immutable, append-only record of a session or media decision made by the gateway.
//
// Invariants:
// - Events are never updated or deleted.
// - Session tokens and verification tokens are never stored.
// - Recording is best-effort; request flows never block on it.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	// Identity is the media participant identity, when one is known.
	Identity string `json:"identity,omitempty"`
	Room     string `json:"room,omitempty"`
	Path     string `json:"path,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Message is short and human-readable; for failures it is the reason shown to the user.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventEmailVerified           EventType = "email_verified"
	EventEmailVerificationFailed EventType = "email_verification_failed"
	EventSessionCleared          EventType = "session_cleared"
	EventMediaTokenIssued        EventType = "media_token_issued"
	EventAccessDenied            EventType = "access_denied"
)
