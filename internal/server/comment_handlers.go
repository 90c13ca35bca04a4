package server

import (
	"quill/internal/models"
	"quill/internal/service"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/posts/:slug/comment. Hidden comments are only
// returned to their author.
func (s *Server) ListComments(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	viewerID, _ := s.optionalUserID(c)

	comments, err := s.commentService.ListForPost(c.UserContext(), c.Params("slug"), viewerID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, comments)
}

// CreateComment handles POST /api/posts/:slug/comment.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content" validate:"required"`
		Visible *bool  `json:"visible"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: currentUserID(c),
		PostSlug: c.Params("slug"),
		Content:  req.Content,
		Visible:  req.Visible,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, comment)
}

// GetComment handles GET /api/posts/:slug/comment/:id.
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	comment, serr := s.commentService.GetComment(c.UserContext(), id, viewerID)
	if serr != nil {
		return models.RespondWithError(c, serr)
	}
	return models.Respond(c, fiber.StatusOK, comment)
}

// UpdateComment handles PATCH /api/posts/:slug/comment/:id.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content *string `json:"content"`
		Visible *bool   `json:"visible"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	comment, serr := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: id,
		Content:   req.Content,
		Visible:   req.Visible,
	})
	if serr != nil {
		return models.RespondWithError(c, serr)
	}
	return models.Respond(c, fiber.StatusOK, comment)
}

// DeleteComment handles DELETE /api/posts/:slug/comment/:id.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if serr := s.commentService.DeleteComment(c.UserContext(), currentUserID(c), id); serr != nil {
		return models.RespondWithError(c, serr)
	}
	return models.Respond(c, fiber.StatusOK, "Comment deleted")
}

// ListMyComments handles GET /api/posts/me/comments.
func (s *Server) ListMyComments(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	comments, err := s.commentService.ListMyComments(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, comments)
}
