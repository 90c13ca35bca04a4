package repository

import (
	"context"

	"quill/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	ReplaceForPost(ctx context.Context, post *models.Post, names []string) error
	ListWithCounts(ctx context.Context, ordering string) ([]*models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// ReplaceForPost replaces the post's entire tag set with the given names.
// Names are normalized and deduplicated first; an empty set clears the
// association without touching tag rows. Missing tags are batch-created with
// insert-or-ignore, so two writers racing on the same new name converge on a
// single row.
func (r *tagRepository) ReplaceForPost(ctx context.Context, post *models.Post, names []string) error {
	normalized := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		n := models.NormalizeTagName(name)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}

	db := r.db.WithContext(ctx)

	if len(normalized) == 0 {
		if err := db.Model(post).Association("Tags").Clear(); err != nil {
			return err
		}
		post.Tags = nil
		return nil
	}

	rows := make([]models.Tag, 0, len(normalized))
	for _, n := range normalized {
		rows = append(rows, models.Tag{Name: n})
	}
	if err := db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&rows).Error; err != nil {
		return err
	}

	// Re-select so rows skipped by the conflict clause carry their real IDs.
	var tags []models.Tag
	if err := db.Where("name IN ?", normalized).Find(&tags).Error; err != nil {
		return err
	}

	refs := make([]*models.Tag, 0, len(tags))
	for i := range tags {
		refs = append(refs, &tags[i])
	}
	if err := db.Model(post).Association("Tags").Replace(refs); err != nil {
		return err
	}
	post.Tags = tags
	return nil
}

// ListWithCounts returns all tags annotated with the number of published
// posts carrying each, in a single query.
func (r *tagRepository) ListWithCounts(ctx context.Context, ordering string) ([]*models.Tag, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Select("tags.*, " +
			"(SELECT COUNT(*) FROM post_tags " +
			"JOIN posts ON posts.id = post_tags.post_id " +
			"WHERE post_tags.tag_id = tags.id AND posts.published = true AND posts.deleted_at IS NULL) as posts_count")

	switch ordering {
	case "count":
		q = q.Order("posts_count ASC, tags.name ASC")
	case "-count":
		q = q.Order("posts_count DESC, tags.name ASC")
	default:
		q = q.Order("tags.name ASC")
	}

	var tags []*models.Tag
	if err := q.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
