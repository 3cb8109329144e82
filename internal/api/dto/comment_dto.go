package dto

import (
	"time"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	TicketID string `json:"ticketId"`
	Author   string `json:"author"`
	Message  string `json:"message"`
}

// CommentResponse is a thread message with its author expanded.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Author    UserRef   `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCommentResponse maps the expanded read model.
func NewCommentResponse(v *domain.CommentView) CommentResponse {
	return CommentResponse{
		ID:       v.ID,
		TicketID: v.TicketID,
		Author: UserRef{
			ID:   v.Author.ID,
			Name: v.Author.Name,
			Role: v.Author.Role,
		},
		Message:   v.Message,
		CreatedAt: v.CreatedAt,
	}
}
