package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskpro/helpdesk-service/internal/api/dto"
	"github.com/helpdeskpro/helpdesk-service/internal/auth"
	"github.com/helpdeskpro/helpdesk-service/internal/domain"
	"github.com/helpdeskpro/helpdesk-service/internal/service"
	apperrors "github.com/helpdeskpro/helpdesk-service/pkg/util"
)

// CommentsHandler manages thread endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// ListComments GET /comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	views, err := h.service.ListComments(c.Context(), c.Query("ticketId"))
	if err != nil {
		return err
	}

	items := make([]dto.CommentResponse, 0, len(views))
	for i := range views {
		items = append(items, dto.NewCommentResponse(&views[i]))
	}
	return c.JSON(fiber.Map{"comments": items})
}

// CreateComment POST /comments.
func (h *CommentsHandler) CreateComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	// clients may only comment as themselves; a missing author is left for
	// validation to reject
	if principal.User.Role == domain.RoleClient && req.Author != "" && req.Author != principal.User.ID {
		return apperrors.NewForbidden("author must match the authenticated user")
	}

	view, err := h.service.AddComment(c.Context(), service.CommentCreateInput{
		TicketID: req.TicketID,
		AuthorID: req.Author,
		Message:  req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"comment": dto.NewCommentResponse(view)})
}
