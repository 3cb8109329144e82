package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
	"github.com/helpdeskpro/helpdesk-service/internal/events"
	"github.com/helpdeskpro/helpdesk-service/internal/repository"
	apperrors "github.com/helpdeskpro/helpdesk-service/pkg/util"
)

// CommentService coordinates ticket thread workflows.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// CommentDependencies bundles repositories for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// CommentCreateInput describes the add-comment payload.
type CommentCreateInput struct {
	TicketID string
	AuthorID string
	Message  string
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ListComments returns a ticket's thread ordered oldest first, authors
// expanded.
func (s *CommentService) ListComments(ctx context.Context, ticketID string) ([]domain.CommentView, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, apperrors.NewValidationError("ticketId is required", nil)
	}
	views, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return views, nil
}

// AddComment appends a message to a ticket's thread. When the author is an
// agent the ticket's creator is notified; client comments notify nobody.
func (s *CommentService) AddComment(ctx context.Context, input CommentCreateInput) (*domain.CommentView, error) {
	ticketID := strings.TrimSpace(input.TicketID)
	authorID := strings.TrimSpace(input.AuthorID)
	message := strings.TrimSpace(input.Message)

	if ticketID == "" || authorID == "" || message == "" {
		return nil, apperrors.NewValidationError("ticketId, author and message are required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": authorID})
		}
		return nil, apperrors.MapError(err)
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: author.ID,
		Message:  message,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	view, err := s.comments.GetView(ctx, comment.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	creator, err := s.users.GetByID(ctx, ticket.CreatedBy)
	if err == nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketCommentAdded,
			TicketID: ticket.ID,
			ActorID:  author.ID,
			Payload: events.TicketCommentAddedPayload{
				CommentID:    comment.ID,
				AuthorRole:   author.Role,
				Title:        ticket.Title,
				CreatorEmail: creator.Email,
			},
		})
	}

	return view, nil
}

func (s *CommentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
