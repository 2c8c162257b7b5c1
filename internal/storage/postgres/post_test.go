package postgres

import (
	"fmt"
	"testing"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/post"
	"github.com/VitaminP8/postgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostPostgresStorage_Save(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Success post creation", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "Alice")
		goID := createTestTag(t, "go")
		sqlID := createTestTag(t, "sql")

		author := &model.User{ID: fmt.Sprint(authorID), FirstName: "Alice"}
		tags := []*model.Tag{
			{ID: fmt.Sprint(goID), Name: "go"},
			{ID: fmt.Sprint(sqlID), Name: "sql"},
			{ID: fmt.Sprint(goID), Name: "go"},
		}

		saved, err := storage.Save(ctx, storage.Create("Test Post Title", "Test content", author, tags))
		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.NotEmpty(t, saved[0].ID)
		assert.Equal(t, fmt.Sprint(authorID), saved[0].AuthorID)

		// Проверяем, что пост действительно создался в БД
		var dbPost models.Post
		err = DB.Preload("Tags").First(&dbPost, saved[0].ID).Error
		require.NoError(t, err)
		assert.Equal(t, "Test Post Title", dbPost.Title)
		assert.Equal(t, authorID, dbPost.AuthorID)
		assert.Len(t, dbPost.Tags, 2)

		// сами теги не перезаписываются
		var tag models.Tag
		require.NoError(t, DB.First(&tag, goID).Error)
		assert.Equal(t, "go", tag.Name)
	})

	t.Run("Error: no author", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		_, err := storage.Save(ctx, storage.Create("Title", "Content", nil, nil))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "author")
	})

	t.Run("Error: unsaved tag", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "Alice")
		author := &model.User{ID: fmt.Sprint(authorID)}

		_, err := storage.Save(ctx, storage.Create("Title", "Content", author, []*model.Tag{{Name: "new"}}))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "is not saved")
	})

	t.Run("Updates existing post", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "Alice")
		goID := createTestTag(t, "go")
		sqlID := createTestTag(t, "sql")
		postID := createTestPost(t, authorID, "Old title", goID)

		p := storage.Create("New title", "New content",
			&model.User{ID: fmt.Sprint(authorID)},
			[]*model.Tag{{ID: fmt.Sprint(sqlID)}},
		)
		p.ID = fmt.Sprint(postID)

		_, err := storage.Save(ctx, p)
		require.NoError(t, err)

		found, err := storage.FindOne(ctx, p.ID, post.RelationTags)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "New title", found.Title)
		assert.Equal(t, []string{fmt.Sprint(sqlID)}, tagIDs(found.Tags))
	})
}

func TestPostPostgresStorage_Find(t *testing.T) {
	storage := NewPostPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	aliceID := createTestUser(t, "Alice")
	bobID := createTestUser(t, "Bob")
	goID := createTestTag(t, "go")
	sqlID := createTestTag(t, "sql")
	p1 := fmt.Sprint(createTestPost(t, aliceID, "Post 1", goID))
	p2 := fmt.Sprint(createTestPost(t, aliceID, "Post 2", goID, sqlID))
	p3 := fmt.Sprint(createTestPost(t, bobID, "Post 3"))

	t.Run("Get all posts", func(t *testing.T) {
		posts, err := storage.Find(ctx, post.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{p1, p2, p3}, postIDs(posts))
	})

	t.Run("By author", func(t *testing.T) {
		posts, err := storage.Find(ctx, post.Filter{AuthorID: fmt.Sprint(aliceID)})
		require.NoError(t, err)
		assert.Equal(t, []string{p1, p2}, postIDs(posts))
	})

	t.Run("By tag", func(t *testing.T) {
		posts, err := storage.Find(ctx, post.Filter{TagID: fmt.Sprint(sqlID)})
		require.NoError(t, err)
		assert.Equal(t, []string{p2}, postIDs(posts))
	})

	t.Run("By ids", func(t *testing.T) {
		posts, err := storage.Find(ctx, post.Filter{IDs: []string{p3, "abc"}})
		require.NoError(t, err)
		assert.Equal(t, []string{p3}, postIDs(posts))

		posts, err = storage.Find(ctx, post.Filter{IDs: []string{}})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("With relations", func(t *testing.T) {
		posts, err := storage.Find(ctx, post.Filter{IDs: []string{p2}}, post.RelationAuthor, post.RelationTags)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		require.NotNil(t, posts[0].Author)
		assert.Equal(t, "Alice", posts[0].Author.FirstName)
		assert.ElementsMatch(t, []string{fmt.Sprint(goID), fmt.Sprint(sqlID)}, tagIDs(posts[0].Tags))
	})
}

func TestPostPostgresStorage_FindOne(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Getting exists post", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "Alice")
		postID := createTestPost(t, authorID, "Test Post Title")

		p, err := storage.FindOne(ctx, fmt.Sprint(postID), post.RelationAuthor)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Test Post Title", p.Title)
		assert.Equal(t, fmt.Sprint(authorID), p.AuthorID)
		require.NotNil(t, p.Author)
		assert.Equal(t, "Alice", p.Author.FirstName)
	})

	t.Run("Trying to get not exist post", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		p, err := storage.FindOne(ctx, "999")
		assert.NoError(t, err)
		assert.Nil(t, p)
	})
}
