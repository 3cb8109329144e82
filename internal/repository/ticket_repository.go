package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. A nil field means no filter.
type TicketFilter struct {
	CreatedBy *string
	Status    *domain.TicketStatus
}

// TicketUpdate captures a partial update. Only non-nil fields are applied;
// updated_at is always refreshed.
type TicketUpdate struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssignedTo *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdatePartial applies the provided fields and returns the ticket with
	// its references expanded. Returns pgx.ErrNoRows when the id does not
	// resolve.
	UpdatePartial(ctx context.Context, id string, update TicketUpdate) (*domain.TicketView, error)
	// ListWithFilter returns expanded tickets sorted by creation time
	// descending.
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, created_by, assigned_to, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, created_by, assigned_to, status, priority, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdatePartial(ctx context.Context, id string, update TicketUpdate) (*domain.TicketView, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if update.Priority != nil {
		args = append(args, *update.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if update.AssignedTo != nil {
		args = append(args, *update.AssignedTo)
		sets = append(sets, fmt.Sprintf("assigned_to=$%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.getView(ctx, id)
}

const ticketViewSelect = `
        SELECT t.id, t.title, t.description, t.created_by, t.assigned_to,
               t.status, t.priority, t.created_at, t.updated_at,
               c.name, c.email, a.name
        FROM tickets t
        JOIN users c ON c.id = t.created_by
        LEFT JOIN users a ON a.id = t.assigned_to`

func (r *ticketRepository) getView(ctx context.Context, id string) (*domain.TicketView, error) {
	query := ticketViewSelect + ` WHERE t.id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	view, err := scanTicketView(row)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("t.created_by=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC`,
		ticketViewSelect, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketView
	for rows.Next() {
		view, err := scanTicketView(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, rows.Err()
}

func scanTicketView(row pgx.Row) (*domain.TicketView, error) {
	var view domain.TicketView
	var assigneeName *string
	if err := row.Scan(
		&view.ID,
		&view.Title,
		&view.Description,
		&view.CreatedBy,
		&view.AssignedTo,
		&view.Status,
		&view.Priority,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.Creator.Name,
		&view.Creator.Email,
		&assigneeName,
	); err != nil {
		return nil, err
	}
	view.Creator.ID = view.CreatedBy
	if view.AssignedTo != nil {
		assignee := domain.UserSummary{ID: *view.AssignedTo}
		if assigneeName != nil {
			assignee.Name = *assigneeName
		}
		view.Assignee = &assignee
	}
	return &view, nil
}
