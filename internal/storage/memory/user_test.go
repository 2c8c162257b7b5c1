package memory

import (
	"context"
	"testing"

	"github.com/VitaminP8/postgraph/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMemoryStorage_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigns sequential ids", func(t *testing.T) {
		storage := NewUserMemoryStorage(NewDatabase())

		saved, err := storage.Save(ctx, storage.Create("Alice", "Smith", 30), storage.Create("Bob", "Jones", 25))
		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.Equal(t, "1", saved[0].ID)
		assert.Equal(t, "2", saved[1].ID)
		assert.Equal(t, "Alice", saved[0].FirstName)
	})

	t.Run("Create does not persist", func(t *testing.T) {
		storage := NewUserMemoryStorage(NewDatabase())

		u := storage.Create("Alice", "Smith", 30)
		assert.Empty(t, u.ID)

		users, err := storage.Find(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("Updates existing user", func(t *testing.T) {
		storage := NewUserMemoryStorage(NewDatabase())

		saved, err := storage.Save(ctx, storage.Create("Alice", "Smith", 30))
		require.NoError(t, err)

		u := saved[0]
		u.Age = 31
		_, err = storage.Save(ctx, u)
		require.NoError(t, err)

		found, err := storage.FindOne(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 31, found.Age)

		users, err := storage.Find(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("Error: unknown id", func(t *testing.T) {
		storage := NewUserMemoryStorage(NewDatabase())

		u := storage.Create("Alice", "Smith", 30)
		u.ID = "42"
		_, err := storage.Save(ctx, u)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestUserMemoryStorage_SaveBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	renamed := *f.alice
	renamed.FirstName = "Alicia"
	ghost := f.users.Create("Ghost", "User", 1)
	ghost.ID = "999"

	_, err := f.users.Save(ctx, f.users.Create("Carol", "White", 40), &renamed, ghost)
	require.Error(t, err)

	users, err := f.users.Find(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{f.alice.ID, f.bob.ID}, ids(users))
	assert.Equal(t, "Alice", users[0].FirstName)

	saved, err := f.users.Save(ctx, f.users.Create("Carol", "White", 40))
	require.NoError(t, err)
	assert.Equal(t, "3", saved[0].ID)
}

func TestUserMemoryStorage_Find(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("Without relations", func(t *testing.T) {
		users, err := f.users.Find(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{f.alice.ID, f.bob.ID}, ids(users))
		for _, u := range users {
			assert.Nil(t, u.Posts)
		}
	})

	t.Run("With posts", func(t *testing.T) {
		users, err := f.users.Find(ctx, user.RelationPosts)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, []string{f.p1.ID, f.p2.ID}, ids(users[0].Posts))
		assert.Equal(t, []string{f.p3.ID}, ids(users[1].Posts))
	})

	t.Run("Error: unknown relation", func(t *testing.T) {
		_, err := f.users.Find(ctx, "comments")

		var relErr *UnknownRelationError
		assert.ErrorAs(t, err, &relErr)
		assert.Equal(t, "comments", relErr.Relation)
	})
}

func TestUserMemoryStorage_FindOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("Existing user", func(t *testing.T) {
		u, err := f.users.FindOne(ctx, f.bob.ID)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "Bob", u.FirstName)
		assert.Equal(t, "Jones", u.LastName)
		assert.Equal(t, 25, u.Age)
	})

	t.Run("Absent user is not an error", func(t *testing.T) {
		for _, id := range []string{"999", "0", "-1", "abc", ""} {
			u, err := f.users.FindOne(ctx, id)
			assert.NoError(t, err, id)
			assert.Nil(t, u, id)
		}
	})
}
