package server

import (
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/post_media with a multipart "file" part.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c,
			models.NewFieldValidationError("Validation failed", models.Fields{"file": "a file upload is required"}))
	}

	media, serr := s.mediaService.Upload(
		c.UserContext(),
		currentUserID(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		func(dst string) error { return c.SaveFile(fileHeader, dst) },
	)
	if serr != nil {
		return models.RespondWithError(c, serr)
	}
	return models.Respond(c, fiber.StatusCreated, media)
}

// ListMyMedia handles GET /api/post_media.
func (s *Server) ListMyMedia(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	media, err := s.mediaService.ListMyMedia(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, media)
}

// GetMedia handles GET /api/post_media/:id.
func (s *Server) GetMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	media, serr := s.mediaService.GetMedia(c.UserContext(), currentUserID(c), id)
	if serr != nil {
		return models.RespondWithError(c, serr)
	}
	return models.Respond(c, fiber.StatusOK, media)
}

// DeleteMedia handles DELETE /api/post_media/:id.
func (s *Server) DeleteMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if serr := s.mediaService.DeleteMedia(c.UserContext(), currentUserID(c), id); serr != nil {
		return models.RespondWithError(c, serr)
	}
	return models.Respond(c, fiber.StatusOK, "Media deleted")
}
