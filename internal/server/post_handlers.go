package server

import (
	"strings"

	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts with filtering and ordering query
// parameters: title, content, author, tags (comma-separated), ordering.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	viewerID, _ := s.optionalUserID(c)

	filter := repository.PostFilter{
		Title:    c.Query("title"),
		Content:  c.Query("content"),
		Author:   c.Query("author"),
		Ordering: c.Query("ordering"),
	}
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Filter:   filter,
		ViewerID: viewerID,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, posts)
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title     string   `json:"title" validate:"required"`
		Content   string   `json:"content" validate:"required"`
		Published *bool    `json:"published"`
		Tags      []string `json:"tags_list"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:  currentUserID(c),
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
		Tags:      req.Tags,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, post)
}

// GetPost handles GET /api/posts/:slug. Drafts are visible to their author only.
func (s *Server) GetPost(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)
	post, err := s.postService.GetPost(c.UserContext(), c.Params("slug"), viewerID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, post)
}

// UpdatePost handles PATCH /api/posts/:slug.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req struct {
		Title     *string   `json:"title"`
		Content   *string   `json:"content"`
		Published *bool     `json:"published"`
		Tags      *[]string `json:"tags_list"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	in := service.UpdatePostInput{
		UserID:    currentUserID(c),
		Slug:      c.Params("slug"),
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
		in.TagsSet = true
	}

	post, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/:slug.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), c.Params("slug")); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post deleted")
}

// ToggleLike handles POST /api/posts/:slug/toggle_like.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	result, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), c.Params("slug"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, result)
}

// ListMyPosts handles GET /api/posts/me, including the viewer's drafts.
func (s *Server) ListMyPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.ListMyPosts(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, posts)
}

// ListMyLikedPosts handles GET /api/posts/me/likes.
func (s *Server) ListMyLikedPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.ListMyLikedPosts(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, posts)
}

// ListTags handles GET /api/tags?ordering=-count.
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.postService.ListTags(c.UserContext(), c.Query("ordering"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, tags)
}
