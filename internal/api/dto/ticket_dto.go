package dto

import (
	"time"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	CreatedBy   string                `json:"createdBy"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload; nil fields are not applied.
type UpdateTicketRequest struct {
	TicketID   string                 `json:"ticketId"`
	Status     *domain.TicketStatus   `json:"status"`
	Priority   *domain.TicketPriority `json:"priority"`
	AssignedTo *string                `json:"assignedTo"`
}

// TicketResponse is a ticket as stored, references as plain ids.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	CreatedBy   string                `json:"createdBy"`
	AssignedTo  *string               `json:"assignedTo"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// UserRef is an expanded user reference on a read model.
type UserRef struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
}

// TicketViewResponse is a ticket with creator and assignee expanded.
type TicketViewResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	CreatedBy   UserRef               `json:"createdBy"`
	AssignedTo  *UserRef              `json:"assignedTo"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// NewTicketResponse maps the stored entity.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTicketViewResponse maps the expanded read model.
func NewTicketViewResponse(v *domain.TicketView) TicketViewResponse {
	resp := TicketViewResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		CreatedBy: UserRef{
			ID:    v.Creator.ID,
			Name:  v.Creator.Name,
			Email: v.Creator.Email,
		},
		Status:    v.Status,
		Priority:  v.Priority,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	if v.Assignee != nil {
		resp.AssignedTo = &UserRef{ID: v.Assignee.ID, Name: v.Assignee.Name}
	}
	return resp
}
