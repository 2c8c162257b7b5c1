package postgres

import (
	"fmt"
	"testing"

	"github.com/VitaminP8/postgraph/internal/user"
	"github.com/VitaminP8/postgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPostgresStorage_Save(t *testing.T) {
	storage := NewUserPostgresStorage()

	t.Run("Creates new users", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		saved, err := storage.Save(ctx, storage.Create("Alice", "Smith", 30), storage.Create("Bob", "Jones", 25))
		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.NotEmpty(t, saved[0].ID)
		assert.NotEqual(t, saved[0].ID, saved[1].ID)

		var count int
		require.NoError(t, DB.Model(&models.User{}).Count(&count).Error)
		assert.Equal(t, 2, count)
	})

	t.Run("Updates existing user", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "Alice")

		var before models.User
		require.NoError(t, DB.First(&before, userID).Error)

		u := storage.Create("Alicia", "Smith", 31)
		u.ID = fmt.Sprint(userID)
		_, err := storage.Save(ctx, u)
		require.NoError(t, err)

		var after models.User
		require.NoError(t, DB.First(&after, userID).Error)
		assert.Equal(t, "Alicia", after.FirstName)
		assert.Equal(t, 31, after.Age)
		assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix())
	})

	t.Run("Error: invalid id", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		u := storage.Create("Alice", "Smith", 30)
		u.ID = "abc"
		_, err := storage.Save(ctx, u)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "could not save user")
	})
}

func TestUserPostgresStorage_Find(t *testing.T) {
	storage := NewUserPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	aliceID := createTestUser(t, "Alice")
	bobID := createTestUser(t, "Bob")
	p1 := createTestPost(t, aliceID, "Post 1")
	p2 := createTestPost(t, aliceID, "Post 2")

	t.Run("Without relations", func(t *testing.T) {
		users, err := storage.Find(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, fmt.Sprint(aliceID), users[0].ID)
		assert.Equal(t, "Bob", users[1].FirstName)
	})

	t.Run("With posts", func(t *testing.T) {
		users, err := storage.Find(ctx, user.RelationPosts)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.ElementsMatch(t, []string{fmt.Sprint(p1), fmt.Sprint(p2)}, postIDs(users[0].Posts))
		assert.Empty(t, users[1].Posts)
		assert.Equal(t, fmt.Sprint(bobID), users[1].ID)
	})

	t.Run("Error: unknown relation", func(t *testing.T) {
		_, err := storage.Find(ctx, "comments")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown relation")
	})
}

func TestUserPostgresStorage_FindOne(t *testing.T) {
	storage := NewUserPostgresStorage()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	userID := createTestUser(t, "Alice")

	t.Run("Getting exists user", func(t *testing.T) {
		u, err := storage.FindOne(ctx, fmt.Sprint(userID))
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "Alice", u.FirstName)
		assert.Equal(t, "Tester", u.LastName)
		assert.Equal(t, 30, u.Age)
	})

	t.Run("Absent user is nil without error", func(t *testing.T) {
		for _, id := range []string{"999", "abc", "0"} {
			u, err := storage.FindOne(ctx, id)
			assert.NoError(t, err, id)
			assert.Nil(t, u, id)
		}
	})
}
