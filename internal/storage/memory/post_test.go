package memory

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/post"
	"github.com/VitaminP8/postgraph/internal/tag"
	"github.com/VitaminP8/postgraph/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMemoryStorage_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("Success post creation", func(t *testing.T) {
		f := newFixture(t)

		created := f.posts.Create("Fourth", "fourth content", f.bob, []*model.Tag{f.sql})
		assert.Empty(t, created.ID)
		assert.Equal(t, f.bob.ID, created.AuthorID)

		saved, err := f.posts.Save(ctx, created)
		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, "4", saved[0].ID)
		assert.Equal(t, f.bob.ID, saved[0].AuthorID)

		found, err := f.posts.FindOne(ctx, saved[0].ID, post.RelationAuthor, post.RelationTags)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Fourth", found.Title)
		assert.Equal(t, "fourth content", found.Content)
		assert.Equal(t, "Bob", found.Author.FirstName)
		assert.Equal(t, []string{f.sql.ID}, ids(found.Tags))
	})

	t.Run("Duplicate tags are stored once", func(t *testing.T) {
		f := newFixture(t)

		saved, err := f.posts.Save(ctx, f.posts.Create("Dup", "dup", f.alice, []*model.Tag{f.sql, f.golang, f.sql}))
		require.NoError(t, err)

		tags, err := f.tags.Find(ctx, tag.Filter{PostID: saved[0].ID})
		require.NoError(t, err)
		assert.Equal(t, []string{f.golang.ID, f.sql.ID}, ids(tags))
	})

	t.Run("Error: no author", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.posts.Save(ctx, f.posts.Create("Orphan", "no author", nil, nil))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "author")
	})

	t.Run("Error: unsaved author", func(t *testing.T) {
		f := newFixture(t)

		ghost := f.users.Create("Ghost", "User", 1)
		ghost.ID = "999"
		_, err := f.posts.Save(ctx, f.posts.Create("Orphan", "ghost author", ghost, nil))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("Error: unsaved tag", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.posts.Save(ctx, f.posts.Create("Bad", "bad tag", f.alice, []*model.Tag{f.tags.Create("new")}))
		assert.Error(t, err)

		posts, err := f.posts.Find(ctx, post.Filter{})
		require.NoError(t, err)
		assert.Len(t, posts, 3)
	})

	t.Run("Failed batch leaves storage unchanged", func(t *testing.T) {
		f := newFixture(t)

		renamed := *f.p1
		renamed.Title = "Renamed"
		_, err := f.posts.Save(ctx,
			f.posts.Create("Fourth", "valid", f.alice, nil),
			&renamed,
			f.posts.Create("Bad", "bad tag", f.alice, []*model.Tag{f.tags.Create("new")}),
		)
		require.Error(t, err)

		posts, err := f.posts.Find(ctx, post.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{f.p1.ID, f.p2.ID, f.p3.ID}, ids(posts))
		assert.Equal(t, "First", posts[0].Title)

		// счетчик id не сдвинулся
		saved, err := f.posts.Save(ctx, f.posts.Create("Fourth", "valid", f.alice, nil))
		require.NoError(t, err)
		assert.Equal(t, "4", saved[0].ID)
	})

	t.Run("Replaces tags of existing post", func(t *testing.T) {
		f := newFixture(t)

		updated := *f.p2
		updated.Tags = []*model.Tag{f.sql}
		_, err := f.posts.Save(ctx, &updated)
		require.NoError(t, err)

		tags, err := f.tags.Find(ctx, tag.Filter{PostID: f.p2.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{f.sql.ID}, ids(tags))
	})
}

func TestPostMemoryStorage_Find(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("All posts in id order", func(t *testing.T) {
		posts, err := f.posts.Find(ctx, post.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{f.p1.ID, f.p2.ID, f.p3.ID}, ids(posts))
		for _, p := range posts {
			assert.Nil(t, p.Author)
			assert.Nil(t, p.Tags)
		}
	})

	t.Run("By author", func(t *testing.T) {
		posts, err := f.posts.Find(ctx, post.Filter{AuthorID: f.alice.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{f.p1.ID, f.p2.ID}, ids(posts))

		posts, err = f.posts.Find(ctx, post.Filter{AuthorID: "abc"})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("By tag", func(t *testing.T) {
		posts, err := f.posts.Find(ctx, post.Filter{TagID: f.sql.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{f.p2.ID}, ids(posts))
	})

	t.Run("By ids", func(t *testing.T) {
		posts, err := f.posts.Find(ctx, post.Filter{IDs: []string{f.p3.ID, f.p1.ID}})
		require.NoError(t, err)
		assert.Equal(t, []string{f.p1.ID, f.p3.ID}, ids(posts))
	})

	t.Run("With relations", func(t *testing.T) {
		posts, err := f.posts.Find(ctx, post.Filter{}, post.RelationAuthor, post.RelationTags)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, f.alice.ID, posts[0].Author.ID)
		assert.Equal(t, f.bob.ID, posts[2].Author.ID)
		assert.Equal(t, []string{f.golang.ID, f.sql.ID}, ids(posts[1].Tags))
		assert.Empty(t, posts[2].Tags)
	})

	t.Run("Post-tag relation is symmetric", func(t *testing.T) {
		tags, err := f.tags.Find(ctx, tag.Filter{}, tag.RelationPosts)
		require.NoError(t, err)

		for _, tg := range tags {
			for _, p := range tg.Posts {
				ofPost, err := f.tags.Find(ctx, tag.Filter{PostID: p.ID})
				require.NoError(t, err)
				assert.Contains(t, ids(ofPost), tg.ID)
			}
		}
	})

	t.Run("Every post author is listed", func(t *testing.T) {
		users, err := f.users.Find(ctx, user.RelationPosts)
		require.NoError(t, err)

		posts, err := f.posts.Find(ctx, post.Filter{})
		require.NoError(t, err)
		for _, p := range posts {
			assert.Contains(t, ids(users), p.AuthorID)
		}
	})
}

func TestPostMemoryStorage_FindOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	found, err := f.posts.FindOne(ctx, f.p3.ID, post.RelationAuthor)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Third", found.Title)
	assert.Equal(t, "Bob", found.Author.FirstName)

	found, err = f.posts.FindOne(ctx, "123456")
	assert.NoError(t, err)
	assert.Nil(t, found)

	_, err = f.posts.FindOne(ctx, f.p1.ID, "comments")
	assert.Error(t, err)
}

func TestPostMemoryStorage_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	numPosts := 50

	for i := 0; i < numPosts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			p := f.posts.Create("Concurrent "+strconv.Itoa(idx), "content", f.alice, []*model.Tag{f.golang})
			_, err := f.posts.Save(ctx, p)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	posts, err := f.posts.Find(ctx, post.Filter{})
	require.NoError(t, err)
	assert.Len(t, posts, numPosts+3)

	// id уникальны
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		_, dup := seen[p.ID]
		assert.False(t, dup, "duplicate id %s", p.ID)
		seen[p.ID] = struct{}{}
	}
}
