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

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	CreatedBy   string
	Priority    domain.TicketPriority
}

// TicketUpdateInput describes a partial ticket update. Nil fields are left
// untouched.
type TicketUpdateInput struct {
	TicketID   string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssignedTo *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket files a new ticket. Status is always open regardless of
// caller input; priority falls back to medium.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	createdBy := strings.TrimSpace(input.CreatedBy)

	if title == "" || description == "" || createdBy == "" {
		return nil, apperrors.NewValidationError("title, description and createdBy are required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidTicketPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	creator, err := s.users.GetByID(ctx, createdBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": createdBy})
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		CreatedBy:   creator.ID,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creator.ID,
		Payload: events.TicketCreatedPayload{
			Title:        ticket.Title,
			Priority:     ticket.Priority,
			CreatorEmail: creator.Email,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets visible to the actor, newest first. Clients
// are always scoped to their own tickets; agents see everything. A status
// of "" or "all" applies no status filter.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, status string) ([]domain.TicketView, error) {
	filter := repository.TicketFilter{}

	if actor.Role == domain.RoleClient {
		createdBy := actor.ID
		filter.CreatedBy = &createdBy
	}

	if status != "" && status != "all" {
		st := domain.TicketStatus(status)
		if !domain.ValidTicketStatus(st) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
		filter.Status = &st
	}

	views, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return views, nil
}

// UpdateTicket applies a partial update and refreshes the update timestamp.
// A transition to closed notifies the ticket's creator.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID string, input TicketUpdateInput) (*domain.TicketView, error) {
	if strings.TrimSpace(input.TicketID) == "" {
		return nil, apperrors.NewValidationError("ticketId is required", nil)
	}
	if input.Status != nil && !domain.ValidTicketStatus(*input.Status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !domain.ValidTicketPriority(*input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
	}

	current, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": input.TicketID})
		}
		return nil, apperrors.MapError(err)
	}

	view, err := s.tickets.UpdatePartial(ctx, current.ID, repository.TicketUpdate{
		Status:     input.Status,
		Priority:   input.Priority,
		AssignedTo: input.AssignedTo,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": input.TicketID})
		}
		return nil, apperrors.MapError(err)
	}

	if input.Status != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: view.ID,
			ActorID:  actorID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus:    current.Status,
				NewStatus:    *input.Status,
				Title:        view.Title,
				CreatorEmail: view.Creator.Email,
			},
		})
	}
	return view, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
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
