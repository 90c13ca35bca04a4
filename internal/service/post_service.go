package service

import (
	"context"
	"errors"
	"strings"

	"quill/internal/cache"
	"quill/internal/content"
	"quill/internal/models"
	"quill/internal/repository"

	"gorm.io/gorm"
)

const (
	maxTitleLen    = 300
	maxContentLen  = 50000
	maxTagsPerPost = 20
)

// PostService owns the post write pipeline (sanitize, slug, tag linking) and
// the read-model views.
type PostService struct {
	postRepo repository.PostRepository
	tagRepo  repository.TagRepository
}

type CreatePostInput struct {
	AuthorID  uint
	Title     string
	Content   string
	Published *bool
	Tags      []string
}

type UpdatePostInput struct {
	UserID    uint
	Slug      string
	Title     *string
	Content   *string
	Published *bool
	Tags      []string
	// TagsSet distinguishes "replace with empty set" from "leave alone".
	TagsSet bool
}

type ListPostsInput struct {
	Filter   repository.PostFilter
	ViewerID uint
	Limit    int
	Offset   int
}

// ToggleLikeResult reports the post-mutation like state.
type ToggleLikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likes"`
}

func NewPostService(postRepo repository.PostRepository, tagRepo repository.TagRepository) *PostService {
	return &PostService{postRepo: postRepo, tagRepo: tagRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"title": "this field is required"})
	}
	if len(title) > maxTitleLen {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"title": "title too long (max 300 characters)"})
	}
	if in.Content == "" {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "this field is required"})
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "content too long (max 50000 characters)"})
	}
	if len(in.Tags) > maxTagsPerPost {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"tags": "too many tags (max 20)"})
	}

	published := true
	if in.Published != nil {
		published = *in.Published
	}

	post := &models.Post{
		Title:     title,
		Content:   content.Sanitize(in.Content),
		AuthorID:  in.AuthorID,
		Published: published,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"title": "a post with this title already exists"})
		}
		return nil, models.NewInternalError(err)
	}

	if err := s.tagRepo.ReplaceForPost(ctx, post, in.Tags); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.GetPost(ctx, post.Slug, in.AuthorID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, in.Slug, in.UserID)
	if err != nil {
		return nil, translate(err, "Post")
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"title": "this field is required"})
		}
		if len(title) > maxTitleLen {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"title": "title too long (max 300 characters)"})
		}
		post.Title = title
	}
	if in.Content != nil {
		if *in.Content == "" {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "this field is required"})
		}
		if len(*in.Content) > maxContentLen {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"content": "content too long (max 50000 characters)"})
		}
		post.Content = content.Sanitize(*in.Content)
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"title": "a post with this title already exists"})
		}
		return nil, models.NewInternalError(err)
	}

	if in.TagsSet {
		if len(in.Tags) > maxTagsPerPost {
			return nil, models.NewFieldValidationError("Validation failed", models.Fields{"tags": "too many tags (max 20)"})
		}
		if err := s.tagRepo.ReplaceForPost(ctx, post, in.Tags); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	return s.GetPost(ctx, post.Slug, in.UserID)
}

func (s *PostService) GetPost(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug, viewerID)
	if err != nil {
		return nil, translate(err, "Post")
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx, in.Filter, in.ViewerID, in.Limit, in.Offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) ListMyPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, userID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) ListMyLikedPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.ListLikedBy(ctx, userID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID uint, slug string) error {
	post, err := s.postRepo.GetBySlug(ctx, slug, userID)
	if err != nil {
		return translate(err, "Post")
	}
	if post.AuthorID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, post); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ToggleLike flips the viewer's like on a post and reports the new state.
// Authors cannot like their own posts.
func (s *PostService) ToggleLike(ctx context.Context, userID uint, slug string) (*ToggleLikeResult, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug, userID)
	if err != nil {
		return nil, translate(err, "Post")
	}
	if post.AuthorID == userID {
		return nil, models.NewForbiddenError("You cannot like your own post")
	}

	liked, err := s.postRepo.IsLiked(ctx, userID, post.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if liked {
		err = s.postRepo.Unlike(ctx, userID, post.ID)
	} else {
		err = s.postRepo.Like(ctx, userID, post.ID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.Slug)

	count, err := s.postRepo.LikeCount(ctx, post.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &ToggleLikeResult{Liked: !liked, LikeCount: count}, nil
}

// ListTags returns all tags with their published-post counts. The default
// ordering is served cache-aside; explicit orderings always hit the database.
func (s *PostService) ListTags(ctx context.Context, ordering string) ([]*models.Tag, error) {
	load := func() ([]*models.Tag, error) {
		tags, err := s.tagRepo.ListWithCounts(ctx, ordering)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return tags, nil
	}

	if ordering != "" {
		return load()
	}

	var tags []*models.Tag
	err := cache.Aside(ctx, cache.TagListKey, &tags, cache.TagListTTL, func() error {
		loaded, err := load()
		if err != nil {
			return err
		}
		tags = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
