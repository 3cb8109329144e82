package events

import (
	"time"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title        string                `json:"title"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatorEmail string                `json:"creator_email"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	Title        string              `json:"title"`
	CreatorEmail string              `json:"creator_email"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID    string      `json:"comment_id"`
	AuthorRole   domain.Role `json:"author_role"`
	Title        string      `json:"title"`
	CreatorEmail string      `json:"creator_email"`
}
