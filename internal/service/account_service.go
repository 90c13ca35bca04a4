package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/mailer"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

const (
	tokenIssuer   = "quill-api"
	tokenAudience = "quill-client"

	accessTokenTTL  = 7 * 24 * time.Hour
	confirmTokenTTL = 24 * time.Hour
	resetTokenTTL   = time.Hour

	purposeEmailConfirmation = "email_confirmation"
	purposePasswordReset     = "password_reset"

	maxAvatarSize = 5 << 20 // 5 MiB

	// BlacklistPrefix is the Redis key prefix for revoked token IDs.
	BlacklistPrefix = "blacklist:"
)

// AccountService owns signup, login, and the email-token account flows.
type AccountService struct {
	userRepo repository.UserRepository
	queue    *mailer.Queue
	rdb      *redis.Client
	cfg      *config.Config
}

type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type UpdateMeInput struct {
	UserID          uint
	FirstName       *string
	LastName        *string
	Bio             *string
	Password        *string
	CurrentPassword string
}

func NewAccountService(userRepo repository.UserRepository, queue *mailer.Queue, rdb *redis.Client, cfg *config.Config) *AccountService {
	return &AccountService{userRepo: userRepo, queue: queue, rdb: rdb, cfg: cfg}
}

// Signup creates an inactive account and queues the confirmation email.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	fields := models.Fields{}
	if err := validation.ValidateUsername(in.Username); err != nil {
		fields["username"] = err.Error()
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError("Validation failed", fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsActive:  false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.NewConflictError("Username or email already taken")
		}
		return nil, models.NewInternalError(err)
	}

	s.sendConfirmation(ctx, user)
	return user, nil
}

// Login authenticates by email or username. Inactive accounts are rejected.
func (s *AccountService) Login(ctx context.Context, login, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return "", nil, models.NewInternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsActive {
		return "", nil, models.NewUnauthorizedError("Account is not activated. Check your email for the confirmation link.")
	}

	token, err := s.accessToken(user)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return "", nil, models.NewInternalError(err)
	}
	user.LastLogin = &now

	return token, user, nil
}

// Logout revokes the token by blacklisting its ID until it would have expired.
func (s *AccountService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, BlacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ConfirmEmail activates the account referenced by a confirmation token.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) error {
	userID, err := s.parsePurposeToken(token, purposeEmailConfirmation)
	if err != nil {
		return models.NewValidationError("Invalid or expired confirmation token")
	}
	if err := s.userRepo.Activate(ctx, userID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ResendConfirmation re-queues the confirmation email. It does not reveal
// whether the address exists.
func (s *AccountService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	if user.IsActive {
		return nil
	}
	s.sendConfirmation(ctx, user)
	return nil
}

// SendPasswordReset queues a reset email. It does not reveal whether the
// address exists.
func (s *AccountService) SendPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	token, err := s.purposeToken(user.ID, purposePasswordReset, resetTokenTTL)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.queue.Enqueue(ctx, mailer.PasswordResetEmail(user.Email, user.Username, s.cfg.FrontendURL, token))
	return nil
}

// ConfirmPasswordReset sets a new password using a reset token.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	userID, err := s.parsePurposeToken(token, purposePasswordReset)
	if err != nil {
		return models.NewValidationError("Invalid or expired reset token")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewFieldValidationError("Validation failed", models.Fields{"password": err.Error()})
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Me returns the authenticated user's own record.
func (s *AccountService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User")
	}
	return user, nil
}

// UpdateMe applies a partial update to the authenticated user's record. A
// password change requires the current password.
func (s *AccountService) UpdateMe(ctx context.Context, in UpdateMeInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, translate(err, "User")
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Password != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"current_password": "current password is incorrect"})
		}
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"password": err.Error()})
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// UpdateAvatar stores a new profile picture under the media root and points
// the user's record at it. The previous file is removed best effort. save
// receives the absolute destination path.
func (s *AccountService) UpdateAvatar(ctx context.Context, userID uint, filename string, size int64, save func(dst string) error) (*models.User, error) {
	if size <= 0 {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"file": "a file upload is required"})
	}
	if size > maxAvatarSize {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"file": "file too large (max 5 MiB)"})
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"file": "unsupported image type"})
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User")
	}

	relPath := filepath.Join("profile_pics", strconv.FormatUint(uint64(userID), 10), uuid.New().String()+ext)
	dst := filepath.Join(s.cfg.MediaRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := save(dst); err != nil {
		return nil, models.NewInternalError(err)
	}

	previous := user.ProfilePic
	user.ProfilePic = relPath
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}
	if previous != "" && previous != relPath {
		_ = os.Remove(filepath.Join(s.cfg.MediaRoot, previous))
	}
	return user, nil
}

// PublicProfile returns the public projection of a user by username.
func (s *AccountService) PublicProfile(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(username), &profile, cache.ProfileTTL, func() error {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		profile = *user.Profile()
		return nil
	})
	if err != nil {
		return nil, translate(err, "User")
	}
	return &profile, nil
}

func (s *AccountService) sendConfirmation(ctx context.Context, user *models.User) {
	token, err := s.purposeToken(user.ID, purposeEmailConfirmation, confirmTokenTTL)
	if err != nil {
		return
	}
	s.queue.Enqueue(ctx, mailer.ConfirmationEmail(user.Email, user.Username, s.cfg.FrontendURL, token))
}

// accessToken creates the session JWT for the given user.
func (s *AccountService) accessToken(user *models.User) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(accessTokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// purposeToken creates a short-lived single-purpose JWT for the email flows.
func (s *AccountService) purposeToken(userID uint, purpose string, ttl time.Duration) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(userID), 10),
		"purpose": purpose,
		"iss":     tokenIssuer,
		"aud":     tokenAudience,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"jti":     generateJTI(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AccountService) parsePurposeToken(tokenString, purpose string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid claims")
	}
	if iss, _ := claims["iss"].(string); iss != tokenIssuer {
		return 0, fmt.Errorf("invalid issuer")
	}
	if aud, _ := claims["aud"].(string); aud != tokenAudience {
		return 0, fmt.Errorf("invalid audience")
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return 0, fmt.Errorf("invalid purpose")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("missing subject")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid subject")
	}
	return uint(userID), nil
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
