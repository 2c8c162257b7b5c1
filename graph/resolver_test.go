package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/mocks"
	"github.com/VitaminP8/postgraph/internal/storage/memory"
	"github.com/VitaminP8/postgraph/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEnv struct {
	resolver *Resolver
	posts    *mocks.MockPostStorage
	subs     *mocks.MockSubscriptionManager
	logs     *observer.ObservedLogs

	users *memory.UserMemoryStorage
	tags  *memory.TagMemoryStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := memory.NewDatabase()
	core, logs := observer.New(zapcore.DebugLevel)

	env := &testEnv{
		posts: mocks.NewMockPostStorage(memory.NewPostMemoryStorage(db)),
		subs:  mocks.NewMockSubscriptionManager(),
		logs:  logs,
		users: memory.NewUserMemoryStorage(db),
		tags:  memory.NewTagMemoryStorage(db),
	}
	env.resolver = &Resolver{
		UserStore:           env.users,
		PostStore:           env.posts,
		TagStore:            env.tags,
		SubscriptionManager: env.subs,
		Logger:              zap.New(core),
	}

	return env
}

func (e *testEnv) createUser(t *testing.T, firstName string) *model.User {
	t.Helper()
	saved, err := e.users.Save(context.Background(), e.users.Create(firstName, "Doe", 30))
	require.NoError(t, err)
	return saved[0]
}

func (e *testEnv) createTag(t *testing.T, name string) *model.Tag {
	t.Helper()
	saved, err := e.tags.Save(context.Background(), e.tags.Create(name))
	require.NoError(t, err)
	return saved[0]
}

func tagIDs(tags []*model.Tag) []string {
	result := make([]string, 0, len(tags))
	for _, t := range tags {
		result = append(result, t.ID)
	}
	return result
}

func postIDs(posts []*model.Post) []string {
	result := make([]string, 0, len(posts))
	for _, p := range posts {
		result = append(result, p.ID)
	}
	return result
}

func TestMutationResolver_CreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful post creation", func(t *testing.T) {
		env := newTestEnv(t)
		tag1 := env.createTag(t, "tag1")
		tag2 := env.createTag(t, "tag2")
		env.createUser(t, "A")
		b := env.createUser(t, "B")
		env.createUser(t, "C")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "test",
			Content:  "life is good!",
			AuthorID: b.ID,
			Tags:     []string{tag1.ID, tag2.ID},
		})
		require.NoError(t, err)
		require.NotNil(t, post)
		assert.NotEmpty(t, post.ID)
		assert.Equal(t, "test", post.Title)
		assert.Equal(t, "life is good!", post.Content)
		assert.Equal(t, b.ID, post.AuthorID)

		author, err := env.resolver.Post().Author(ctx, post)
		require.NoError(t, err)
		require.NotNil(t, author)
		assert.Equal(t, b.ID, author.ID)

		tags, err := env.resolver.Post().Tags(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, []string{tag1.ID, tag2.ID}, tagIDs(tags))

		// пост виден через автора
		found, err := env.resolver.Query().Author(ctx, b.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		posts, err := env.resolver.User().Posts(ctx, found)
		require.NoError(t, err)
		assert.Equal(t, []string{post.ID}, postIDs(posts))

		// и через каждый тег
		for _, tg := range []*model.Tag{tag1, tag2} {
			tagged, err := env.resolver.Tag().Posts(ctx, tg)
			require.NoError(t, err)
			assert.Equal(t, []string{post.ID}, postIDs(tagged))
		}
	})

	t.Run("Unknown author returns null without error", func(t *testing.T) {
		env := newTestEnv(t)
		tg := env.createTag(t, "tag1")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "orphan",
			Content:  "no author",
			AuthorID: "999",
			Tags:     []string{tg.ID},
		})
		require.NoError(t, err)
		assert.Nil(t, post)

		all, err := env.resolver.Query().Posts(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
		assert.Empty(t, env.subs.GetNotifications(subscription.PostAdded))
		assert.Equal(t, 1, env.logs.FilterMessage("post not created: author not found").Len())
	})

	t.Run("Unknown tags are dropped", func(t *testing.T) {
		env := newTestEnv(t)
		tg := env.createTag(t, "tag1")
		a := env.createUser(t, "A")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "partial",
			Content:  "one tag is missing",
			AuthorID: a.ID,
			Tags:     []string{tg.ID, "404", "not-a-number"},
		})
		require.NoError(t, err)
		require.NotNil(t, post)

		tags, err := env.resolver.Post().Tags(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, []string{tg.ID}, tagIDs(tags))
	})

	t.Run("Empty tag list", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.createUser(t, "A")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "plain",
			Content:  "no tags",
			AuthorID: a.ID,
			Tags:     []string{},
		})
		require.NoError(t, err)
		require.NotNil(t, post)

		tags, err := env.resolver.Post().Tags(ctx, post)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("Duplicate tags are stored once", func(t *testing.T) {
		env := newTestEnv(t)
		tg := env.createTag(t, "tag1")
		a := env.createUser(t, "A")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "dup",
			Content:  "same tag twice",
			AuthorID: a.ID,
			Tags:     []string{tg.ID, tg.ID},
		})
		require.NoError(t, err)
		require.NotNil(t, post)

		tags, err := env.resolver.Post().Tags(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, []string{tg.ID}, tagIDs(tags))
	})

	t.Run("Publishes postAdded event", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.createUser(t, "A")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "news",
			Content:  "fresh",
			AuthorID: a.ID,
			Tags:     []string{},
		})
		require.NoError(t, err)

		notifications := env.subs.GetNotifications(subscription.PostAdded)
		require.Len(t, notifications, 1)
		assert.Equal(t, post.ID, notifications[0].ID)
		assert.Equal(t, "news", notifications[0].Title)
		assert.Equal(t, 1, env.logs.FilterMessage("post created").Len())
	})

	t.Run("Works without subscription manager", func(t *testing.T) {
		env := newTestEnv(t)
		env.resolver.SubscriptionManager = nil
		a := env.createUser(t, "A")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "quiet",
			Content:  "nobody listens",
			AuthorID: a.ID,
			Tags:     []string{},
		})
		require.NoError(t, err)
		assert.NotNil(t, post)
	})

	t.Run("Storage error is returned", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.createUser(t, "A")
		env.posts.SaveErr = errors.New("disk is full")

		post, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title:    "lost",
			Content:  "never saved",
			AuthorID: a.ID,
			Tags:     []string{},
		})
		assert.EqualError(t, err, "disk is full")
		assert.Nil(t, post)
		assert.Empty(t, env.subs.GetNotifications(subscription.PostAdded))
	})
}

func TestQueryResolver(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	golang := env.createTag(t, "go")
	sql := env.createTag(t, "sql")
	alice := env.createUser(t, "Alice")
	bob := env.createUser(t, "Bob")

	first, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
		Title: "First", Content: "first", AuthorID: alice.ID, Tags: []string{golang.ID},
	})
	require.NoError(t, err)
	second, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
		Title: "Second", Content: "second", AuthorID: alice.ID, Tags: []string{golang.ID, sql.ID},
	})
	require.NoError(t, err)

	t.Run("Authors", func(t *testing.T) {
		authors, err := env.resolver.Query().Authors(ctx)
		require.NoError(t, err)
		require.Len(t, authors, 2)
		assert.Equal(t, alice.ID, authors[0].ID)
		assert.Equal(t, bob.ID, authors[1].ID)
		// связи без явного запроса не загружаются
		assert.Nil(t, authors[0].Posts)
	})

	t.Run("AuthorsWithPosts", func(t *testing.T) {
		authors, err := env.resolver.Query().AuthorsWithPosts(ctx)
		require.NoError(t, err)
		require.Len(t, authors, 2)
		assert.Equal(t, []string{first.ID, second.ID}, postIDs(authors[0].Posts))
		assert.Empty(t, authors[1].Posts)

		logged := env.logs.FilterMessage("authors loaded with posts").All()
		require.NotEmpty(t, logged)
		assert.Equal(t, int64(2), logged[len(logged)-1].ContextMap()["posts"])
	})

	t.Run("Author", func(t *testing.T) {
		found, err := env.resolver.Query().Author(ctx, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Bob", found.FirstName)

		missing, err := env.resolver.Query().Author(ctx, "12345")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Posts", func(t *testing.T) {
		posts, err := env.resolver.Query().Posts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID, second.ID}, postIDs(posts))
	})

	t.Run("Tags", func(t *testing.T) {
		tags, err := env.resolver.Query().Tags(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{golang.ID, sql.ID}, tagIDs(tags))
	})

	t.Run("Tag posts are symmetric with post tags", func(t *testing.T) {
		tagged, err := env.resolver.Tag().Posts(ctx, golang)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID, second.ID}, postIDs(tagged))

		tagged, err = env.resolver.Tag().Posts(ctx, sql)
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID}, postIDs(tagged))
	})
}

func TestFieldResolvers_QueryPerParent(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	authors := []*model.User{
		env.createUser(t, "A"),
		env.createUser(t, "B"),
		env.createUser(t, "C"),
	}
	for _, a := range authors {
		_, err := env.resolver.Mutation().CreatePost(ctx, model.CreatePostInput{
			Title: "by " + a.FirstName, Content: "c", AuthorID: a.ID, Tags: []string{},
		})
		require.NoError(t, err)
	}

	before := env.posts.FindCalls()
	for _, a := range authors {
		posts, err := env.resolver.User().Posts(ctx, a)
		require.NoError(t, err)
		assert.Len(t, posts, 1)
	}

	// каждый родитель догружает свои посты отдельным запросом
	assert.Equal(t, before+len(authors), env.posts.FindCalls())
}

func TestFieldResolvers_StorageErrors(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	a := env.createUser(t, "A")
	env.posts.FindErr = errors.New("connection refused")

	posts, err := env.resolver.User().Posts(ctx, a)
	assert.Error(t, err)
	assert.Nil(t, posts)

	posts, err = env.resolver.Query().Posts(ctx)
	assert.Error(t, err)
	assert.Nil(t, posts)
}

func TestPostResolver_AuthorOfMissingPost(t *testing.T) {
	env := newTestEnv(t)

	author, err := env.resolver.Post().Author(context.Background(), &model.Post{ID: "77"})
	require.NoError(t, err)
	assert.Nil(t, author)
}

func TestSubscriptionResolver_PostAdded(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.resolver.Subscription().PostAdded(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, env.subs.Subscribers(subscription.PostAdded))

	post, err := env.resolver.Mutation().CreatePost(context.Background(), model.CreatePostInput{
		Title: "live", Content: "event", AuthorID: a.ID, Tags: []string{},
	})
	require.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, post.ID, received.ID)
		assert.Equal(t, "live", received.Title)
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for notification")
	}

	// после отключения клиента подписка снимается
	cancel()
	assert.Eventually(t, func() bool {
		return env.subs.Subscribers(subscription.PostAdded) == 0
	}, time.Second, 10*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestSubscriptionResolver_RealManager(t *testing.T) {
	env := newTestEnv(t)
	manager := subscription.NewSubscriptionManager()
	defer manager.Close()
	env.resolver.SubscriptionManager = manager
	a := env.createUser(t, "A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1, err := env.resolver.Subscription().PostAdded(ctx)
	require.NoError(t, err)
	ch2, err := env.resolver.Subscription().PostAdded(ctx)
	require.NoError(t, err)

	var created []string
	for i := 0; i < 3; i++ {
		post, err := env.resolver.Mutation().CreatePost(context.Background(), model.CreatePostInput{
			Title: "p", Content: "c", AuthorID: a.ID, Tags: []string{},
		})
		require.NoError(t, err)
		created = append(created, post.ID)
	}

	// каждый подписчик получает все события ровно один раз и по порядку
	for _, ch := range []<-chan *model.Post{ch1, ch2} {
		var received []string
		for range created {
			select {
			case p := <-ch:
				received = append(received, p.ID)
			case <-time.After(time.Second):
				t.Fatal("Timeout waiting for notification")
			}
		}
		assert.Equal(t, created, received)
	}
}
