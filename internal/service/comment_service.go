package service

import (
	"context"
	"strings"

	"quill/internal/models"
	"quill/internal/repository"
)

const maxCommentLen = 5000

// CommentService owns comment CRUD scoped to a post.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	AuthorID uint
	PostSlug string
	Content  string
	Visible  *bool
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   *string
	Visible   *bool
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "this field is required"})
	}
	if len(content) > maxCommentLen {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "comment too long (max 5000 characters)"})
	}

	post, err := s.postRepo.GetBySlug(ctx, in.PostSlug, in.AuthorID)
	if err != nil {
		return nil, translate(err, "Post")
	}

	visible := true
	if in.Visible != nil {
		visible = *in.Visible
	}

	comment := &models.Comment{
		Content:  content,
		AuthorID: in.AuthorID,
		PostID:   post.ID,
		Visible:  visible,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.GetComment(ctx, comment.ID, in.AuthorID)
}

func (s *CommentService) GetComment(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Comment")
	}
	if !comment.Visible && comment.AuthorID != viewerID {
		return nil, models.NewNotFoundError("Comment")
	}
	return comment, nil
}

func (s *CommentService) ListForPost(ctx context.Context, postSlug string, viewerID uint, limit, offset int) ([]*models.Comment, error) {
	post, err := s.postRepo.GetBySlug(ctx, postSlug, viewerID)
	if err != nil {
		return nil, translate(err, "Post")
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID, viewerID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (s *CommentService) ListMyComments(ctx context.Context, userID uint, limit, offset int) ([]*models.Comment, error) {
	comments, err := s.commentRepo.ListByAuthor(ctx, userID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, translate(err, "Comment")
	}
	if comment.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "this field is required"})
		}
		if len(content) > maxCommentLen {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "comment too long (max 5000 characters)"})
		}
		comment.Content = content
	}
	if in.Visible != nil {
		comment.Visible = *in.Visible
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.GetComment(ctx, comment.ID, in.UserID)
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return translate(err, "Comment")
	}
	if comment.AuthorID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
