package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/helpdeskpro/helpdesk-service/internal/api/http"
	"github.com/helpdeskpro/helpdesk-service/internal/api/http/handlers"
	"github.com/helpdeskpro/helpdesk-service/internal/auth"
	"github.com/helpdeskpro/helpdesk-service/internal/domain"
	"github.com/helpdeskpro/helpdesk-service/internal/events"
	"github.com/helpdeskpro/helpdesk-service/internal/observability"
	"github.com/helpdeskpro/helpdesk-service/internal/repository"
	"github.com/helpdeskpro/helpdesk-service/internal/service"
)

// memStore backs the HTTP tests with an in-memory document store matching
// the ordering and error semantics of the SQL repositories.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	tickets  map[string]*domain.Ticket
	comments map[string]*domain.Comment
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*domain.User),
		tickets:  make(map[string]*domain.Ticket),
		comments: make(map[string]*domain.Comment),
		clock:    time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) seedUser(t *testing.T, name, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hashed, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    s.tick(),
	}
	s.users[user.ID] = user
	return user
}

type memUserRepo struct{ *memStore }

func (r memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = r.tick()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memTicketRepo struct{ *memStore }

func (r memTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
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

func (r memTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r memTicketRepo) UpdatePartial(ctx context.Context, id string, update repository.TicketUpdate) (*domain.TicketView, error) {
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
	return r.ticketViewLocked(ticket), nil
}

func (r memTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketView, error) {
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
		result = append(result, *r.ticketViewLocked(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *memStore) ticketViewLocked(ticket *domain.Ticket) *domain.TicketView {
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

type memCommentRepo struct{ *memStore }

func (r memCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.tick()
	stored := *comment
	r.comments[comment.ID] = &stored
	return nil
}

func (r memCommentRepo) GetView(ctx context.Context, id string) (*domain.CommentView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.commentViewLocked(comment), nil
}

func (r memCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.CommentView, error) {
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

func (s *memStore) commentViewLocked(comment *domain.Comment) *domain.CommentView {
	view := &domain.CommentView{Comment: *comment}
	if author, ok := s.users[comment.AuthorID]; ok {
		view.Author = domain.UserSummary{ID: author.ID, Name: author.Name, Role: author.Role}
	}
	return view
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
}

func (r *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{To: to, Subject: subject})
	return nil
}

func (r *recordingSender) Sent() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail{}, r.sent...)
}

func newTestApp(t *testing.T) (*fiber.App, *memStore, *recordingSender) {
	t.Helper()
	store := newMemStore()
	logger := zap.NewNop()

	dispatcher := events.NewInMemoryDispatcher()
	sender := &recordingSender{}
	service.NewNotificationService(dispatcher, sender, logger).RegisterHandlers()

	tokenMgr := auth.NewTokenManager("test-secret", time.Hour)
	sessions := auth.NewMemorySessionStore()

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     memUserRepo{store},
		SessionStore: sessions,
		TokenManager: tokenMgr,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: memTicketRepo{store},
		UserRepo:   memUserRepo{store},
		Dispatcher: dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: memCommentRepo{store},
		TicketRepo:  memTicketRepo{store},
		UserRepo:    memUserRepo{store},
		Dispatcher:  dispatcher,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-test", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		AuthMiddleware: auth.NewAuthMiddleware(tokenMgr, sessions, memUserRepo{store}),
	})
	return app, store, sender
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestLoginValidationAndUniformFailure(t *testing.T) {
	app, store, _ := newTestApp(t)
	store.seedUser(t, "Client Test", "client@test.com", "password123", domain.RoleClient)

	resp, _ := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": "client@test.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	wrongResp, wrongBody := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "client@test.com", "password": "nope",
	})
	unknownResp, unknownBody := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ghost@test.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, wrongResp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownResp.StatusCode)
	// identical error shape, no enumeration signal
	assert.Equal(t, wrongBody, unknownBody)
}

func TestLoginReturnsProfile(t *testing.T) {
	app, store, _ := newTestApp(t)
	seeded := store.seedUser(t, "Client Test", "client@test.com", "password123", domain.RoleClient)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "client@test.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, seeded.ID, user["id"])
	assert.Equal(t, "Client Test", user["name"])
	assert.Equal(t, "client@test.com", user["email"])
	assert.Equal(t, "client", user["role"])
	assert.NotContains(t, user, "password")
}

func TestTicketLifecycle(t *testing.T) {
	app, store, sender := newTestApp(t)
	client := store.seedUser(t, "Client Test", "client@test.com", "password123", domain.RoleClient)
	store.seedUser(t, "Agent Test", "agent@test.com", "password123", domain.RoleAgent)

	clientToken := login(t, app, "client@test.com", "password123")
	agentToken := login(t, app, "agent@test.com", "password123")

	// create
	resp, body := doJSON(t, app, http.MethodPost, "/tickets", clientToken, map[string]any{
		"title":       "Printer down",
		"description": "The office printer does not respond.",
		"createdBy":   client.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created, ok := body["ticket"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "open", created["status"])
	assert.Equal(t, "medium", created["priority"])
	ticketID, _ := created["id"].(string)
	require.NotEmpty(t, ticketID)

	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "client@test.com", sender.Sent()[0].To)

	// client list shows exactly the one ticket, expanded
	resp, body = doJSON(t, app, http.MethodGet, "/tickets", clientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tickets, ok := body["tickets"].([]any)
	require.True(t, ok)
	require.Len(t, tickets, 1)
	listed := tickets[0].(map[string]any)
	assert.Equal(t, "open", listed["status"])
	creator := listed["createdBy"].(map[string]any)
	assert.Equal(t, "Client Test", creator["name"])
	assert.Equal(t, "client@test.com", creator["email"])

	// close as agent
	resp, body = doJSON(t, app, http.MethodPatch, "/tickets", agentToken, map[string]any{
		"ticketId": ticketID,
		"status":   "closed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := body["ticket"].(map[string]any)
	assert.Equal(t, "closed", updated["status"])

	resp, body = doJSON(t, app, http.MethodGet, "/tickets?status=closed", clientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tickets = body["tickets"].([]any)
	require.Len(t, tickets, 1)
	assert.Equal(t, "closed", tickets[0].(map[string]any)["status"])

	require.Eventually(t, func() bool { return len(sender.Sent()) == 2 }, time.Second, 10*time.Millisecond)
	closedMail := sender.Sent()[1]
	assert.Equal(t, "client@test.com", closedMail.To)
	assert.Contains(t, closedMail.Subject, "Ticket closed")
}

func TestTicketAccessControl(t *testing.T) {
	app, store, _ := newTestApp(t)
	client := store.seedUser(t, "Client Test", "client@test.com", "password123", domain.RoleClient)
	other := store.seedUser(t, "Other Client", "other@test.com", "password123", domain.RoleClient)

	clientToken := login(t, app, "client@test.com", "password123")
	otherToken := login(t, app, "other@test.com", "password123")

	// unauthenticated
	resp, _ := doJSON(t, app, http.MethodGet, "/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// clients cannot file tickets as someone else
	resp, _ = doJSON(t, app, http.MethodPost, "/tickets", clientToken, map[string]any{
		"title": "x", "description": "y", "createdBy": other.ID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// clients cannot update tickets at all
	resp, _ = doJSON(t, app, http.MethodPatch, "/tickets", clientToken, map[string]any{
		"ticketId": "whatever", "status": "closed",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// a client listing never sees another client's tickets
	resp, _ = doJSON(t, app, http.MethodPost, "/tickets", clientToken, map[string]any{
		"title": "mine", "description": "desc", "createdBy": client.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/tickets", otherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tickets := body["tickets"].([]any)
	assert.Empty(t, tickets)
}

func TestTicketUpdateErrors(t *testing.T) {
	app, store, _ := newTestApp(t)
	store.seedUser(t, "Agent Test", "agent@test.com", "password123", domain.RoleAgent)
	agentToken := login(t, app, "agent@test.com", "password123")

	resp, _ := doJSON(t, app, http.MethodPatch, "/tickets", agentToken, map[string]any{
		"status": "closed",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPatch, "/tickets", agentToken, map[string]any{
		"ticketId": uuid.NewString(), "status": "closed",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentEndpoints(t *testing.T) {
	app, store, sender := newTestApp(t)
	client := store.seedUser(t, "Client Test", "client@test.com", "password123", domain.RoleClient)
	agent := store.seedUser(t, "Agent Test", "agent@test.com", "password123", domain.RoleAgent)

	clientToken := login(t, app, "client@test.com", "password123")
	agentToken := login(t, app, "agent@test.com", "password123")

	resp, body := doJSON(t, app, http.MethodPost, "/tickets", clientToken, map[string]any{
		"title": "Printer down", "description": "desc", "createdBy": client.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ticketID := body["ticket"].(map[string]any)["id"].(string)
	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, time.Second, 10*time.Millisecond)

	// missing ticketId on list
	resp, _ = doJSON(t, app, http.MethodGet, "/comments", clientToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// missing fields on create
	resp, _ = doJSON(t, app, http.MethodPost, "/comments", clientToken, map[string]any{
		"ticketId": ticketID, "author": client.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// client comment: persisted, no notification
	resp, body = doJSON(t, app, http.MethodPost, "/comments", clientToken, map[string]any{
		"ticketId": ticketID, "author": client.ID, "message": "It broke this morning.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := body["comment"].(map[string]any)
	author := comment["author"].(map[string]any)
	assert.Equal(t, "Client Test", author["name"])
	assert.Equal(t, "client", author["role"])

	// agent comment: notifies the creator
	resp, _ = doJSON(t, app, http.MethodPost, "/comments", agentToken, map[string]any{
		"ticketId": ticketID, "author": agent.ID, "message": "Restart it please.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Eventually(t, func() bool { return len(sender.Sent()) == 2 }, time.Second, 10*time.Millisecond)
	responseMail := sender.Sent()[1]
	assert.Equal(t, "client@test.com", responseMail.To)
	assert.Contains(t, responseMail.Subject, "New response")

	// thread in ascending order
	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/comments?ticketId=%s", ticketID), clientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := body["comments"].([]any)
	require.Len(t, comments, 2)
	assert.Equal(t, "It broke this morning.", comments[0].(map[string]any)["message"])
	assert.Equal(t, "Restart it please.", comments[1].(map[string]any)["message"])

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sender.Sent(), 2)
}

func TestLogoutRevokesToken(t *testing.T) {
	app, store, _ := newTestApp(t)
	store.seedUser(t, "Client Test", "client@test.com", "password123", domain.RoleClient)
	token := login(t, app, "client@test.com", "password123")

	resp, _ := doJSON(t, app, http.MethodGet, "/tickets", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/tickets", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthLive(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])
	assert.Equal(t, "helpdesk-test", body["service"])
}
