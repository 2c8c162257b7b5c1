package postgres

import (
	"fmt"
	"testing"

	"github.com/VitaminP8/postgraph/internal/tag"
	"github.com/VitaminP8/postgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagPostgresStorage_Find(t *testing.T) {
	storage := NewTagPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	authorID := createTestUser(t, "Alice")
	goID := createTestTag(t, "go")
	sqlID := createTestTag(t, "sql")
	postID := createTestPost(t, authorID, "Post", sqlID)

	t.Run("All tags", func(t *testing.T) {
		tags, err := storage.Find(ctx, tag.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{fmt.Sprint(goID), fmt.Sprint(sqlID)}, tagIDs(tags))
	})

	t.Run("By ids skips unknown", func(t *testing.T) {
		tags, err := storage.Find(ctx, tag.Filter{IDs: []string{fmt.Sprint(goID), "999", "abc"}})
		require.NoError(t, err)
		assert.Equal(t, []string{fmt.Sprint(goID)}, tagIDs(tags))
	})

	t.Run("Empty ids returns nothing", func(t *testing.T) {
		tags, err := storage.Find(ctx, tag.Filter{IDs: []string{}})
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("By post", func(t *testing.T) {
		tags, err := storage.Find(ctx, tag.Filter{PostID: fmt.Sprint(postID)})
		require.NoError(t, err)
		assert.Equal(t, []string{fmt.Sprint(sqlID)}, tagIDs(tags))
	})

	t.Run("With posts", func(t *testing.T) {
		tags, err := storage.Find(ctx, tag.Filter{IDs: []string{fmt.Sprint(sqlID)}}, tag.RelationPosts)
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, []string{fmt.Sprint(postID)}, postIDs(tags[0].Posts))
	})
}

func TestTagPostgresStorage_FindOne(t *testing.T) {
	storage := NewTagPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	tagID := createTestTag(t, "go")

	found, err := storage.FindOne(ctx, fmt.Sprint(tagID))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "go", found.Name)

	found, err = storage.FindOne(ctx, "999")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestTagPostgresStorage_Save(t *testing.T) {
	storage := NewTagPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	saved, err := storage.Save(ctx, storage.Create("go"))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotEmpty(t, saved[0].ID)

	saved[0].Name = "golang"
	_, err = storage.Save(ctx, saved[0])
	require.NoError(t, err)

	var record models.Tag
	require.NoError(t, DB.First(&record, saved[0].ID).Error)
	assert.Equal(t, "golang", record.Name)
}
