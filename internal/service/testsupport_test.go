package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
	"github.com/helpdeskpro/helpdesk-service/internal/repository"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It
// mimics the SQL behavior the services depend on: pgx.ErrNoRows for
// missing rows, descending ticket order, ascending comment order, and a
// monotonic clock so inserts get distinct timestamps.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	tickets  map[string]*domain.Ticket
	comments map[string]*domain.Comment
	clock    time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*domain.User),
		tickets:  make(map[string]*domain.Ticket),
		comments: make(map[string]*domain.Comment),
		clock:    time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) addUser(name, email string, role domain.Role) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: s.tick(),
	}
	s.users[user.ID] = user
	return user
}

// UserRepository

func (s *fakeStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = s.tick()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// userRepo, ticketRepo and commentRepo expose the fakeStore under the
// individual repository interfaces so the method sets do not collide.
type userRepo struct{ *fakeStore }
type ticketRepo struct{ *fakeStore }
type commentRepo struct{ *fakeStore }

// TicketRepository

func (r ticketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	now := r.tick()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r ticketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r ticketRepo) UpdatePartial(ctx context.Context, id string, update repository.TicketUpdate) (*domain.TicketView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if update.Status != nil {
		ticket.Status = *update.Status
	}
	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.AssignedTo != nil {
		assignee := *update.AssignedTo
		ticket.AssignedTo = &assignee
	}
	ticket.UpdatedAt = r.tick()
	return r.viewLocked(ticket), nil
}

func (r ticketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketView
	for _, ticket := range r.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		result = append(result, *r.viewLocked(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *fakeStore) viewLocked(ticket *domain.Ticket) *domain.TicketView {
	view := &domain.TicketView{Ticket: *ticket}
	if creator, ok := s.users[ticket.CreatedBy]; ok {
		view.Creator = domain.UserSummary{ID: creator.ID, Name: creator.Name, Email: creator.Email}
	}
	if ticket.AssignedTo != nil {
		if assignee, ok := s.users[*ticket.AssignedTo]; ok {
			view.Assignee = &domain.UserSummary{ID: assignee.ID, Name: assignee.Name}
		}
	}
	return view
}

// CommentRepository

func (r commentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.tick()
	stored := *comment
	r.comments[comment.ID] = &stored
	return nil
}

func (r commentRepo) GetView(ctx context.Context, id string) (*domain.CommentView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.commentViewLocked(comment), nil
}

func (r commentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.CommentView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.CommentView
	for _, comment := range r.comments {
		if comment.TicketID != ticketID {
			continue
		}
		result = append(result, *r.commentViewLocked(comment))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *fakeStore) commentViewLocked(comment *domain.Comment) *domain.CommentView {
	view := &domain.CommentView{Comment: *comment}
	if author, ok := s.users[comment.AuthorID]; ok {
		view.Author = domain.UserSummary{ID: author.ID, Name: author.Name, Role: author.Role}
	}
	return view
}

// recordingSender captures outbound mail for assertions.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (r *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *recordingSender) Sent() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail{}, r.sent...)
}

// failingSender always errors, for verifying best-effort delivery.
type failingSender struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSender) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return context.DeadlineExceeded
}

func (f *failingSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
