package server

import (
	"time"

	"quill/internal/models"
	"quill/internal/service"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/accounts/signup. The account starts inactive; a
// confirmation email is queued.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username  string `json:"username" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	user, err := s.accountService.Signup(c.UserContext(), service.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.Respond(c, fiber.StatusCreated, fiber.Map{
		"user": user,
		"note": "Check your email for the confirmation link.",
	})
}

// Login handles POST /api/accounts/login. The login field accepts an email
// address or a username.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	token, user, err := s.accountService.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.Respond(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/accounts/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	expiresAt, ok := c.Locals("tokenExp").(time.Time)
	if !ok {
		expiresAt = time.Now().Add(7 * 24 * time.Hour)
	}

	if err := s.accountService.Logout(c.UserContext(), jti, expiresAt); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Logged out")
}

// ConfirmEmail handles POST /api/accounts/email_confirmation.
func (s *Server) ConfirmEmail(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	if err := s.accountService.ConfirmEmail(c.UserContext(), req.Token); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Email confirmed")
}

// ResendConfirmation handles POST /api/accounts/resend_email_confirmation.
// The response is success-shaped whether or not the address is known.
func (s *Server) ResendConfirmation(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	if err := s.accountService.ResendConfirmation(c.UserContext(), req.Email); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "If the address exists, a confirmation email has been sent.")
}

// SendPasswordReset handles POST /api/accounts/send_reset_password_email_confirmation.
func (s *Server) SendPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	if err := s.accountService.SendPasswordReset(c.UserContext(), req.Email); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "If the address exists, a reset email has been sent.")
}

// ConfirmPasswordReset handles POST /api/accounts/confirm_reset_password.
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if fields := validation.Struct(req); fields != nil {
		return models.RespondWithError(c, models.NewFieldValidationError("Validation failed", fields))
	}

	if err := s.accountService.ConfirmPasswordReset(c.UserContext(), req.Token, req.Password); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Password updated")
}

// GetMe handles GET /api/accounts/me.
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.accountService.Me(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user)
}

// UpdateMe handles PATCH /api/accounts/me.
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		FirstName       *string `json:"first_name"`
		LastName        *string `json:"last_name"`
		Bio             *string `json:"bio"`
		Password        *string `json:"password"`
		CurrentPassword string  `json:"current_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.accountService.UpdateMe(c.UserContext(), service.UpdateMeInput{
		UserID:          currentUserID(c),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Bio:             req.Bio,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user)
}

// UploadProfilePic handles POST /api/accounts/me/profile_pic with a multipart
// "file" part holding the new avatar image.
func (s *Server) UploadProfilePic(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c,
			models.NewFieldValidationError("Validation failed", models.Fields{"file": "a file upload is required"}))
	}

	user, serr := s.accountService.UpdateAvatar(
		c.UserContext(),
		currentUserID(c),
		fileHeader.Filename,
		fileHeader.Size,
		func(dst string) error { return c.SaveFile(fileHeader, dst) },
	)
	if serr != nil {
		return models.RespondWithError(c, serr)
	}
	return models.Respond(c, fiber.StatusOK, user)
}

// GetPublicProfile handles GET /api/accounts/:username.
func (s *Server) GetPublicProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	profile, err := s.accountService.PublicProfile(c.UserContext(), username)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, profile)
}
