package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"quill/internal/models"
	"quill/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the shared password of every seeded account.
const DemoPassword = "Quill-Demo-Pass1!"

var tagPool = []string{
	"golang", "programming", "web-dev", "databases", "devops", "cloud",
	"testing", "career", "productivity", "linux", "open-source", "tutorials",
	"writing", "books", "travel", "food", "music", "photography",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db           *gorm.DB
	rng          *rand.Rand
	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())

	// every demo account shares one password; hash it once
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("seed: hash demo password: %v", err))
	}

	return &Factory{
		db:           db,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		passwordHash: string(hash),
	}
}

// BuildUser constructs an active user with fake but plausible identity data.
// The index keeps usernames and emails unique across a run.
func (f *Factory) BuildUser(index int) *models.User {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	username := fmt.Sprintf("%s%d", strings.ToLower(first), index)

	return &models.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		Password:  f.passwordHash,
		FirstName: first,
		LastName:  last,
		Bio:       gofakeit.Sentence(f.rng.Intn(8) + 4),
		IsActive:  true,
	}
}

// CreateUsers persists count demo users.
func (f *Factory) CreateUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user := f.BuildUser(i + 1)
		if err := f.db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// BuildPost constructs a post with HTML paragraphs and a realistic
// created_at spread over the past 90 days. Roughly one post in seven
// stays a draft.
func (f *Factory) BuildPost(author *models.User, index int) *models.Post {
	title := strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(4)+3), ".")
	// titles carry the index so reruns cannot collide on the unique slug
	title = fmt.Sprintf("%s %d", title, index)

	paragraphs := make([]string, 0, 3)
	for i := 0; i < f.rng.Intn(3)+1; i++ {
		paragraphs = append(paragraphs, "<p>"+gofakeit.Paragraph(1, 3, 12, " ")+"</p>")
	}

	daysBack := f.rng.Intn(90)
	hoursBack := f.rng.Intn(24)

	return &models.Post{
		Title:     title,
		Content:   strings.Join(paragraphs, "\n"),
		AuthorID:  author.ID,
		Published: f.rng.Intn(7) != 0,
		CreatedAt: time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour),
	}
}

// CreatePosts persists count posts spread over the given authors, each with
// up to three tags drawn from the shared pool.
func (f *Factory) CreatePosts(authors []*models.User, count int) ([]*models.Post, error) {
	if len(authors) == 0 {
		return nil, nil
	}

	ctx := context.Background()
	tagRepo := repository.NewTagRepository(f.db)

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := authors[f.rng.Intn(len(authors))]
		post := f.BuildPost(author, i+1)
		if err := f.db.Omit("Tags").Create(post).Error; err != nil {
			return nil, err
		}
		if err := tagRepo.ReplaceForPost(ctx, post, f.pickTags()); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// BuildComment constructs a visible comment by the given author.
func (f *Factory) BuildComment(author *models.User, post *models.Post) *models.Comment {
	return &models.Comment{
		Content:  gofakeit.Sentence(f.rng.Intn(10) + 4),
		AuthorID: author.ID,
		PostID:   post.ID,
		Visible:  true,
	}
}

func (f *Factory) pickTags() []string {
	n := f.rng.Intn(4)
	if n == 0 {
		return nil
	}
	picked := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(tagPool))[:n] {
		picked = append(picked, tagPool[i])
	}
	return picked
}
