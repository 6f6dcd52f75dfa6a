package events

import (
	"time"

	"github.com/spec-kit/ar-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketEscalated     EventType = "ticket_escalated"
)

// Actor encapsulates actor metadata for an event. The escalation monitor publishes with a
// zero Actor.
type Actor struct {
	UserID   string      `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// ActorFrom captures the identity behind a change.
func ActorFrom(identity domain.AuthContext) Actor {
	return Actor{UserID: identity.UserID, Username: identity.Username, Role: identity.Role()}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ARNumber  string      `json:"ar_number"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title      string                `json:"title"`
	Product    string                `json:"product"`
	SubProduct string                `json:"sub_product"`
	Severity   string                `json:"severity"`
	Priority   domain.TicketPriority `json:"priority"`
	Assignee   string                `json:"assignee,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	LogEntry  string              `json:"log_entry"`
}

// TicketUpdatedPayload lists the wire names of the fields a save changed.
type TicketUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Severity    string    `json:"severity"`
	ClockAnchor time.Time `json:"clock_anchor"`
	Assignee    string    `json:"assignee,omitempty"`
}
