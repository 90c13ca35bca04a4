package repository

import (
	"context"
	"testing"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagNames(post *models.Post) []string {
	names := make([]string, 0, len(post.Tags))
	for _, tag := range post.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestTagRepository_ReplaceForPost_SetReplace(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := createTestPost(t, db, author.ID, "First Post", true)

	require.NoError(t, repo.ReplaceForPost(ctx, post, []string{"a", "b"}))
	assert.ElementsMatch(t, []string{"a", "b"}, tagNames(post))

	require.NoError(t, repo.ReplaceForPost(ctx, post, []string{"b", "c"}))
	assert.ElementsMatch(t, []string{"b", "c"}, tagNames(post))

	var reloaded models.Post
	require.NoError(t, db.Preload("Tags").First(&reloaded, post.ID).Error)
	assert.ElementsMatch(t, []string{"b", "c"}, tagNames(&reloaded))

	// Dropping "a" from the post never deletes the tag row itself.
	var orphan models.Tag
	require.NoError(t, db.Where("name = ?", "a").First(&orphan).Error)
}

func TestTagRepository_ReplaceForPost_EmptyClears(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := createTestPost(t, db, author.ID, "First Post", true)

	require.NoError(t, repo.ReplaceForPost(ctx, post, []string{"go", "web"}))
	require.NoError(t, repo.ReplaceForPost(ctx, post, nil))

	var reloaded models.Post
	require.NoError(t, db.Preload("Tags").First(&reloaded, post.ID).Error)
	assert.Empty(t, reloaded.Tags)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestTagRepository_ReplaceForPost_NormalizesAndDedupes(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := createTestPost(t, db, author.ID, "First Post", true)

	require.NoError(t, repo.ReplaceForPost(ctx, post, []string{"Go!", "go", "Hello, World!", "!!!"}))
	assert.ElementsMatch(t, []string{"go", "hello world"}, tagNames(post))

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestTagRepository_ReplaceForPost_ConvergesOnExistingRow(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	first := createTestPost(t, db, author.ID, "First Post", true)
	second := createTestPost(t, db, author.ID, "Second Post", true)

	// Two writers requesting the same new name end up sharing one row.
	require.NoError(t, repo.ReplaceForPost(ctx, first, []string{"shared"}))
	require.NoError(t, repo.ReplaceForPost(ctx, second, []string{"shared"}))

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "shared").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	require.Len(t, first.Tags, 1)
	require.Len(t, second.Tags, 1)
	assert.Equal(t, first.Tags[0].ID, second.Tags[0].ID)
}

func TestTagRepository_ListWithCounts(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	published := createTestPost(t, db, author.ID, "Published", true)
	alsoPublished := createTestPost(t, db, author.ID, "Also Published", true)
	draft := createTestPost(t, db, author.ID, "Draft", false)

	require.NoError(t, repo.ReplaceForPost(ctx, published, []string{"go", "web"}))
	require.NoError(t, repo.ReplaceForPost(ctx, alsoPublished, []string{"go"}))
	require.NoError(t, repo.ReplaceForPost(ctx, draft, []string{"go", "hidden"}))

	tags, err := repo.ListWithCounts(ctx, "-count")
	require.NoError(t, err)
	require.Len(t, tags, 3)

	byName := map[string]int{}
	for _, tag := range tags {
		byName[tag.Name] = tag.PostsCount
	}
	// Draft posts do not contribute to the counts.
	assert.Equal(t, 2, byName["go"])
	assert.Equal(t, 1, byName["web"])
	assert.Equal(t, 0, byName["hidden"])

	assert.Equal(t, "go", tags[0].Name)
}
