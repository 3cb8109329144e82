package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
)

// CommentRepository encapsulates comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	// GetView returns a single comment with its author expanded.
	GetView(ctx context.Context, id string) (*domain.CommentView, error)
	// ListByTicket returns expanded comments ordered by creation time
	// ascending.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.CommentView, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Message,
	).Scan(&comment.ID, &comment.CreatedAt)
}

const commentViewSelect = `
        SELECT m.id, m.ticket_id, m.author, m.message, m.created_at,
               u.name, u.role
        FROM comments m
        JOIN users u ON u.id = m.author`

func (r *commentRepository) GetView(ctx context.Context, id string) (*domain.CommentView, error) {
	query := commentViewSelect + ` WHERE m.id=$1`
	var view domain.CommentView
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&view.ID,
		&view.TicketID,
		&view.AuthorID,
		&view.Message,
		&view.CreatedAt,
		&view.Author.Name,
		&view.Author.Role,
	); err != nil {
		return nil, err
	}
	view.Author.ID = view.AuthorID
	return &view, nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.CommentView, error) {
	query := commentViewSelect + ` WHERE m.ticket_id=$1 ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CommentView
	for rows.Next() {
		var view domain.CommentView
		if err := rows.Scan(
			&view.ID,
			&view.TicketID,
			&view.AuthorID,
			&view.Message,
			&view.CreatedAt,
			&view.Author.Name,
			&view.Author.Role,
		); err != nil {
			return nil, err
		}
		view.Author.ID = view.AuthorID
		result = append(result, view)
	}
	return result, rows.Err()
}
