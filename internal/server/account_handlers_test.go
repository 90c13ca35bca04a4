package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
)

var mailTokenRe = regexp.MustCompile(`token=([A-Za-z0-9._-]+)`)

func extractMailToken(t *testing.T, body string) string {
	t.Helper()
	m := mailTokenRe.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no token link in mail body: %q", body)
	}
	return m[1]
}

func TestSignupConfirmLoginLogoutFlow(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)

	resp, body := env.request(t, http.MethodPost, "/api/accounts/signup", "", fiber.Map{
		"username":   "walter",
		"email":      "walter@example.com",
		"password":   "Str0ng-Secret-Pass!",
		"first_name": "Walter",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", resp.StatusCode, body.Message)
	}

	confirmMail := env.sender.wait(t)
	if confirmMail.To != "walter@example.com" {
		t.Fatalf("confirmation mail went to %q", confirmMail.To)
	}

	// The account is inactive until the email is confirmed.
	resp, _ = env.request(t, http.MethodPost, "/api/accounts/login", "", fiber.Map{
		"login":    "walter",
		"password": "Str0ng-Secret-Pass!",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login before confirmation: expected 401, got %d", resp.StatusCode)
	}

	confirmToken := extractMailToken(t, confirmMail.Body)
	resp, _ = env.request(t, http.MethodPost, "/api/accounts/email_confirmation", "", fiber.Map{
		"token": confirmToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("email confirmation: expected 200, got %d", resp.StatusCode)
	}

	token := env.login(t, "walter@example.com", "Str0ng-Secret-Pass!")

	resp, body = env.request(t, http.MethodGet, "/api/accounts/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body.Message, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "walter" {
		t.Fatalf("me returned username %q", me.Username)
	}

	resp, _ = env.request(t, http.MethodPost, "/api/accounts/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	// The revoked token no longer authenticates.
	resp, _ = env.request(t, http.MethodGet, "/api/accounts/me", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)

	resp, body := env.request(t, http.MethodPost, "/api/accounts/signup", "", fiber.Map{
		"username": "grace",
		"password": "Str0ng-Secret-Pass!",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body.Errors["email"] == "" {
		t.Fatalf("expected an email field error, got %v", body.Errors)
	}

	resp, body = env.request(t, http.MethodPost, "/api/accounts/signup", "", fiber.Map{
		"username": "grace",
		"email":    "grace@example.com",
		"password": "short",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak password: expected 400, got %d", resp.StatusCode)
	}
	if body.Errors["password"] == "" {
		t.Fatalf("expected a password field error, got %v", body.Errors)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	env.createActiveUser(t, "ada", "Original-Passw0rd!")

	resp, _ := env.request(t, http.MethodPost, "/api/accounts/send_reset_password_email_confirmation", "", fiber.Map{
		"email": "ada@example.com",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send reset: expected 200, got %d", resp.StatusCode)
	}

	resetToken := extractMailToken(t, env.sender.wait(t).Body)
	resp, _ = env.request(t, http.MethodPost, "/api/accounts/confirm_reset_password", "", fiber.Map{
		"token":    resetToken,
		"password": "Replacement-Passw0rd!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm reset: expected 200, got %d", resp.StatusCode)
	}

	env.login(t, "ada", "Replacement-Passw0rd!")

	// A purpose-scoped reset token is not a session token.
	resp, _ = env.request(t, http.MethodGet, "/api/accounts/me", resetToken, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reset token as bearer: expected 401, got %d", resp.StatusCode)
	}
}

func TestSendResetUnknownEmailIsSilent(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)

	resp, _ := env.request(t, http.MethodPost, "/api/accounts/send_reset_password_email_confirmation", "", fiber.Map{
		"email": "nobody@example.com",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unknown address, got %d", resp.StatusCode)
	}
}

func TestPublicProfile(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	env.createActiveUser(t, "lin", "Profile-Passw0rd!")

	resp, body := env.request(t, http.MethodGet, "/api/accounts/lin", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var profile struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body.Message, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Username != "lin" {
		t.Fatalf("profile username %q", profile.Username)
	}

	resp, _ = env.request(t, http.MethodGet, "/api/accounts/ghost", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown profile: expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateBioAndProfilePic(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	author := env.createActiveUser(t, "persona", "Profile-Passw0rd!")
	token := env.login(t, "persona", "Profile-Passw0rd!")

	resp, body := env.request(t, http.MethodPatch, "/api/accounts/me", token, fiber.Map{
		"bio": "Writes about Go.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set bio: expected 200, got %d", resp.StatusCode)
	}

	resp, body = uploadFile(t, env, "/api/accounts/me/profile_pic", token, "face.png", "fake image bytes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload avatar: expected 200, got %d (%s)", resp.StatusCode, body.Message)
	}
	var me struct {
		Bio        string `json:"bio"`
		ProfilePic string `json:"profile_pic"`
	}
	if err := json.Unmarshal(body.Message, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Bio != "Writes about Go." {
		t.Fatalf("bio %q", me.Bio)
	}
	wantDir := filepath.Join("profile_pics", strconv.FormatUint(uint64(author.ID), 10))
	if filepath.Dir(me.ProfilePic) != wantDir {
		t.Fatalf("avatar should nest under %q, got %q", wantDir, me.ProfilePic)
	}
	if _, err := os.Stat(filepath.Join(env.server.config.MediaRoot, me.ProfilePic)); err != nil {
		t.Fatalf("avatar missing on disk: %v", err)
	}

	// Both fields surface on the public profile.
	resp, body = env.request(t, http.MethodGet, "/api/accounts/persona", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", resp.StatusCode)
	}
	var profile struct {
		Bio        string `json:"bio"`
		ProfilePic string `json:"profile_pic"`
	}
	if err := json.Unmarshal(body.Message, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Bio != me.Bio || profile.ProfilePic != me.ProfilePic {
		t.Fatalf("public profile %+v should carry bio and avatar", profile)
	}

	// Replacing the avatar removes the previous file.
	first := me.ProfilePic
	resp, body = uploadFile(t, env, "/api/accounts/me/profile_pic", token, "face2.jpg", "newer image bytes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replace avatar: expected 200, got %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body.Message, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ProfilePic == first {
		t.Fatal("replacement should produce a new path")
	}
	if _, err := os.Stat(filepath.Join(env.server.config.MediaRoot, first)); !os.IsNotExist(err) {
		t.Fatalf("old avatar should be removed, stat err=%v", err)
	}
}

func TestProfilePicRejectsNonImage(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	env.createActiveUser(t, "texty", "Profile-Passw0rd!")
	token := env.login(t, "texty", "Profile-Passw0rd!")

	resp, body := uploadFile(t, env, "/api/accounts/me/profile_pic", token, "notes.txt", "plain text")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body.Errors["file"] == "" {
		t.Fatalf("expected a file field error, got %v", body.Errors)
	}
}

func TestUpdateMeRequiresCurrentPassword(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	env.createActiveUser(t, "miles", "Existing-Passw0rd!")
	token := env.login(t, "miles", "Existing-Passw0rd!")

	resp, _ := env.request(t, http.MethodPatch, "/api/accounts/me", token, fiber.Map{
		"password": "Another-Passw0rd!",
	})
	if resp.StatusCode == http.StatusOK {
		t.Fatal("password change without current_password should be rejected")
	}

	resp, _ = env.request(t, http.MethodPatch, "/api/accounts/me", token, fiber.Map{
		"password":         "Another-Passw0rd!",
		"current_password": "Existing-Passw0rd!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("password change: expected 200, got %d", resp.StatusCode)
	}

	env.login(t, "miles", "Another-Passw0rd!")
}
