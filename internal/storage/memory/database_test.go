package memory

import (
	"context"
	"testing"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/stretchr/testify/require"
)

// fixture - общий набор данных для тестов: два автора, два тега, три поста
type fixture struct {
	db    *Database
	users *UserMemoryStorage
	posts *PostMemoryStorage
	tags  *TagMemoryStorage

	alice, bob  *model.User
	golang, sql *model.Tag
	p1, p2, p3  *model.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db := NewDatabase()
	f := &fixture{
		db:    db,
		users: NewUserMemoryStorage(db),
		posts: NewPostMemoryStorage(db),
		tags:  NewTagMemoryStorage(db),
	}

	users, err := f.users.Save(ctx,
		f.users.Create("Alice", "Smith", 30),
		f.users.Create("Bob", "Jones", 25),
	)
	require.NoError(t, err)
	f.alice, f.bob = users[0], users[1]

	tags, err := f.tags.Save(ctx, f.tags.Create("go"), f.tags.Create("sql"))
	require.NoError(t, err)
	f.golang, f.sql = tags[0], tags[1]

	posts, err := f.posts.Save(ctx,
		f.posts.Create("First", "first content", f.alice, []*model.Tag{f.golang}),
		f.posts.Create("Second", "second content", f.alice, []*model.Tag{f.golang, f.sql}),
		f.posts.Create("Third", "third content", f.bob, nil),
	)
	require.NoError(t, err)
	f.p1, f.p2, f.p3 = posts[0], posts[1], posts[2]

	return f
}

func ids[T interface {
	*model.User | *model.Post | *model.Tag
}](items []T) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		switch v := any(item).(type) {
		case *model.User:
			result = append(result, v.ID)
		case *model.Post:
			result = append(result, v.ID)
		case *model.Tag:
			result = append(result, v.ID)
		}
	}
	return result
}
