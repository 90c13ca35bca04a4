package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/mailer"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// captureSender collects outgoing mail so tests can pull tokens out of the
// message bodies.
type captureSender struct {
	ch chan mailer.Message
}

func (s *captureSender) Send(msg mailer.Message) error {
	s.ch <- msg
	return nil
}

func (s *captureSender) wait(t *testing.T) mailer.Message {
	t.Helper()
	select {
	case msg := <-s.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outgoing mail")
		return mailer.Message{}
	}
}

type handlerTestEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	rdb    *redis.Client
	sender *captureSender
}

// enableCache points the package-level cache client at this test's Redis so
// the cache-aside read paths run. Tests using it must not run in parallel
// because the client is shared process state.
func (env *handlerTestEnv) enableCache(t *testing.T) {
	t.Helper()
	cache.SetClient(env.rdb)
	t.Cleanup(func() { cache.SetClient(nil) })
}

// setupHandlerTest wires a Server against in-memory sqlite and miniredis,
// with the full route table registered. Mail is delivered synchronously to
// the capture sender instead of going through the Redis outbox.
func setupHandlerTest(t *testing.T) *handlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Media{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:         "test",
		JWTSecret:   "handler-test-secret-0123456789abcdef",
		FrontendURL: "http://localhost:3000",
		MediaRoot:   t.TempDir(),
	}

	sender := &captureSender{ch: make(chan mailer.Message, 8)}
	queue := mailer.NewQueue(nil, sender)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewTagRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		mailQueue:   queue,
		userRepo:    userRepo,
		postRepo:    postRepo,
		tagRepo:     tagRepo,
		commentRepo: commentRepo,
		mediaRepo:   mediaRepo,
	}
	s.accountService = service.NewAccountService(userRepo, queue, rdb, cfg)
	s.postService = service.NewPostService(postRepo, tagRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.mediaService = service.NewMediaService(mediaRepo, cfg.MediaRoot)

	app := fiber.New()
	s.SetupRoutes(app)

	return &handlerTestEnv{server: s, app: app, db: db, rdb: rdb, sender: sender}
}

// envelope mirrors the wire shape of API responses for assertions.
type envelope struct {
	Success bool              `json:"success"`
	Message json.RawMessage   `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// request performs an HTTP call against the test app. A non-nil body is JSON
// encoded; token, when non-empty, becomes a bearer Authorization header.
func (env *handlerTestEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env2 envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env2); err != nil {
			t.Fatalf("decode envelope from %q: %v", raw, err)
		}
	}
	return resp, env2
}

// createActiveUser inserts a confirmed user with the given password already
// hashed, skipping the signup flow.
func (env *handlerTestEnv) createActiveUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsActive: true,
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// login authenticates through the real endpoint and returns the bearer token.
func (env *handlerTestEnv) login(t *testing.T, login, password string) string {
	t.Helper()
	resp, body := env.request(t, http.MethodPost, "/api/accounts/login", "", fiber.Map{
		"login":    login,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", login, resp.StatusCode, body.Message)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body.Message, &payload); err != nil {
		t.Fatalf("decode login payload: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return payload.Token
}

// createPost inserts a post directly, bypassing handlers.
func (env *handlerTestEnv) createPost(t *testing.T, authorID uint, title string, published bool) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:     title,
		Content:   "<p>" + title + "</p>",
		AuthorID:  authorID,
		Published: published,
	}
	if err := env.db.Omit("Tags").Create(post).Error; err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}
