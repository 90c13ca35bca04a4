// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"quill/internal/cache"
	"quill/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter carries the optional list-query parameters.
type PostFilter struct {
	Title    string
	Content  string
	Author   string
	Tags     []string
	Ordering string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, viewerID uint, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error)
	ListLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, post *models.Post) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	LikeCount(ctx context.Context, postID uint) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// cachedPost carries the identifiers the API view of a post omits, so a post
// restored from the cache still resolves comment and like lookups.
type cachedPost struct {
	ID       uint        `json:"id"`
	AuthorID uint        `json:"author_id"`
	Post     models.Post `json:"post"`
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Omit("Tags").Create(post).Error
	if err == nil {
		cache.InvalidatePost(ctx, post.Slug)
	}
	return err
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	var post models.Post

	load := func() error {
		// Eligibility is decided in the query so unauthorized rows are never fetched.
		q := r.applyReadModel(r.db.WithContext(ctx), viewerID).
			Preload("Tags").
			Preload("Author").
			Where("posts.slug = ?", slug)
		if viewerID == 0 {
			q = q.Where("posts.published = ?", true)
		} else {
			q = q.Where("posts.published = ? OR posts.author_id = ?", true, viewerID)
		}
		if err := q.First(&post).Error; err != nil {
			return err
		}
		decoratePosts(&post)
		return nil
	}

	if viewerID != 0 {
		if err := load(); err != nil {
			return nil, err
		}
		return &post, nil
	}

	var entry cachedPost
	err := cache.Aside(ctx, cache.PostKey(slug), &entry, cache.PostTTL, func() error {
		if err := load(); err != nil {
			return err
		}
		entry = cachedPost{ID: post.ID, AuthorID: post.AuthorID, Post: post}
		return nil
	})
	if err != nil {
		return nil, err
	}
	post = entry.Post
	post.ID = entry.ID
	post.AuthorID = entry.AuthorID
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, viewerID uint, limit, offset int) ([]*models.Post, error) {
	q := r.applyReadModel(r.db.WithContext(ctx), viewerID).
		Preload("Tags").
		Preload("Author").
		Where("posts.published = ?", true)

	if filter.Title != "" {
		q = q.Where("LOWER(posts.title) LIKE LOWER(?)", "%"+filter.Title+"%")
	}
	if filter.Content != "" {
		q = q.Where("LOWER(posts.content) LIKE LOWER(?)", "%"+filter.Content+"%")
	}
	if filter.Author != "" {
		q = q.Where("posts.author_id IN (SELECT id FROM users WHERE LOWER(username) = LOWER(?))", filter.Author)
	}
	if len(filter.Tags) > 0 {
		names := make([]string, 0, len(filter.Tags))
		for _, t := range filter.Tags {
			if n := models.NormalizeTagName(t); n != "" {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			q = q.Where("posts.id IN (SELECT post_tags.post_id FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE tags.name IN ?)", names)
		}
	}

	var posts []*models.Post
	err := applyPostOrdering(q, filter.Ordering).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	decoratePosts(posts...)
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	// Authors see their own drafts.
	err := r.applyReadModel(r.db.WithContext(ctx), authorID).
		Preload("Tags").
		Preload("Author").
		Where("posts.author_id = ?", authorID).
		Order("posts.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	decoratePosts(posts...)
	return posts, nil
}

func (r *postRepository) ListLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyReadModel(r.db.WithContext(ctx), userID).
		Preload("Tags").
		Preload("Author").
		Where("posts.published = ?", true).
		Where("posts.id IN (SELECT post_id FROM likes WHERE user_id = ?)", userID).
		Order("posts.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	decoratePosts(posts...)
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Tags").Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.Slug)
	return nil
}

// Delete removes the post along with its comments and like rows, and clears
// the tag associations. Tag rows themselves are never deleted.
func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Model(post).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err == nil {
		cache.InvalidatePost(ctx, post.Slug)
	}
	return err
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	// Insert-or-ignore keeps a double submit from erroring out.
	like := models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Create(&like).Error
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
}

func (r *postRepository) LikeCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

// applyReadModel adds subqueries to fetch the like count and viewer-liked flag
// in a single query.
func (r *postRepository) applyReadModel(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked", viewerID)
	}
	return db.Select(selectQuery + ", false as liked")
}

// applyPostOrdering appends the ORDER BY clause for the requested ordering.
// likes_count is a SELECT alias from applyReadModel and may be referenced in
// ORDER BY within the same query level.
func applyPostOrdering(db *gorm.DB, ordering string) *gorm.DB {
	switch ordering {
	case "created_at":
		return db.Order("posts.created_at ASC")
	case "-created_at":
		return db.Order("posts.created_at DESC")
	case "updated_at":
		return db.Order("posts.updated_at ASC")
	case "likes":
		return db.Order("likes_count ASC, posts.updated_at DESC")
	case "-likes":
		return db.Order("likes_count DESC, posts.updated_at DESC")
	default: // "-updated_at" and anything unrecognized
		return db.Order("posts.updated_at DESC")
	}
}

// decoratePosts flattens preloaded associations into the assembled fields.
func decoratePosts(posts ...*models.Post) {
	for _, p := range posts {
		names := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			names = append(names, t.Name)
		}
		p.TagNames = names
		if p.Author.ID != 0 {
			p.AuthorInfo = p.Author.Profile()
		}
	}
}
