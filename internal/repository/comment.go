package repository

import (
	"context"

	"quill/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, viewerID uint, limit, offset int) ([]*models.Comment, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		First(&comment, id).Error; err != nil {
		return nil, err
	}
	decorateComments(&comment)
	return &comment, nil
}

// ListByPost returns a post's comments. Hidden comments stay visible to their
// own author.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, viewerID uint, limit, offset int) ([]*models.Comment, error) {
	q := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID)
	if viewerID == 0 {
		q = q.Where("visible = ?", true)
	} else {
		q = q.Where("visible = ? OR author_id = ?", true, viewerID)
	}

	var comments []*models.Comment
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	decorateComments(comments...)
	return comments, nil
}

func (r *commentRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Post").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	decorateComments(comments...)
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}

func decorateComments(comments ...*models.Comment) {
	for _, c := range comments {
		if c.Author.ID != 0 {
			c.AuthorInfo = c.Author.Profile()
		}
		if c.Post.ID != 0 {
			c.PostSlug = c.Post.Slug
		}
	}
}
