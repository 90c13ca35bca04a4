// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"quill/internal/models"
	"quill/internal/repository"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with demo users, posts, tags, comments and likes.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	factory := NewFactory(db)

	users, err := factory.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d demo users created", len(users))

	posts, err := factory.CreatePosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	comments, err := factory.CreateComments(users, posts)
	if err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	log.Printf("✓ %d comments created", comments)

	likes, err := factory.CreateLikes(users, posts)
	if err != nil {
		return fmt.Errorf("failed to create likes: %w", err)
	}
	log.Printf("✓ %d likes created", likes)

	log.Println("🎉 Seeding complete!")
	return nil
}

// clearData removes seedable rows in dependency order.
func clearData(db *gorm.DB) error {
	statements := []string{
		"DELETE FROM likes",
		"DELETE FROM comments",
		"DELETE FROM post_tags",
		"DELETE FROM posts",
		"DELETE FROM tags",
		"DELETE FROM media",
		"DELETE FROM users",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateLikes distributes likes over published posts. Authors never like
// their own post; each (user, post) pair is liked at most once.
func (f *Factory) CreateLikes(users []*models.User, posts []*models.Post) (int, error) {
	if len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}

	ctx := context.Background()
	postRepo := repository.NewPostRepository(f.db)
	created := 0

	for _, post := range posts {
		if !post.Published {
			continue
		}
		// each post draws likes from a random subset of users
		for _, user := range users {
			if user.ID == post.AuthorID {
				continue
			}
			if f.rng.Intn(100) >= 35 {
				continue
			}
			if err := postRepo.Like(ctx, user.ID, post.ID); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// CreateComments attaches a small random number of comments to each
// published post.
func (f *Factory) CreateComments(users []*models.User, posts []*models.Post) (int, error) {
	if len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}

	created := 0
	for _, post := range posts {
		if !post.Published {
			continue
		}
		n := f.rng.Intn(4)
		for i := 0; i < n; i++ {
			author := users[f.rng.Intn(len(users))]
			comment := f.BuildComment(author, post)
			if err := f.db.Create(comment).Error; err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// used by tests to make seeding deterministic
func (f *Factory) setRandSource(seed int64) {
	f.rng = rand.New(rand.NewSource(seed))
}
