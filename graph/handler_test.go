package graph

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/gqlgen/client"
	"github.com/VitaminP8/postgraph/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlPost struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  *struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
	} `json:"author"`
	Tags []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"tags"`
}

const createPostMutation = `mutation($post: CreatePostInput!) {
	createPost(post: $post) { id title content author { id firstName } tags { id name } }
}`

func newTestClient(t *testing.T, env *testEnv) *client.Client {
	t.Helper()
	srv := NewHandler(env.resolver, HandlerOptions{KeepAlivePingInterval: time.Second})
	return client.New(srv)
}

func TestHandler_CreatePostScenario(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)

	tag1 := env.createTag(t, "tag1")
	tag2 := env.createTag(t, "tag2")
	env.createUser(t, "A")
	b := env.createUser(t, "B")
	env.createUser(t, "C")

	var created struct {
		CreatePost *gqlPost `json:"createPost"`
	}
	c.MustPost(createPostMutation, &created, client.Var("post", map[string]any{
		"title":    "test",
		"content":  "life is good!",
		"authorId": b.ID,
		"tags":     []string{tag1.ID, tag2.ID},
	}))

	require.NotNil(t, created.CreatePost)
	post := created.CreatePost
	assert.Equal(t, "test", post.Title)
	assert.Equal(t, "life is good!", post.Content)
	require.NotNil(t, post.Author)
	assert.Equal(t, b.ID, post.Author.ID)
	assert.Equal(t, "B", post.Author.FirstName)
	require.Len(t, post.Tags, 2)
	assert.Equal(t, "tag1", post.Tags[0].Name)
	assert.Equal(t, "tag2", post.Tags[1].Name)

	var author struct {
		Author struct {
			ID    string `json:"id"`
			Posts []struct {
				ID string `json:"id"`
			} `json:"posts"`
		} `json:"author"`
	}
	c.MustPost(`query($id: ID!) { author(id: $id) { id posts { id } } }`, &author, client.Var("id", b.ID))
	require.Len(t, author.Author.Posts, 1)
	assert.Equal(t, post.ID, author.Author.Posts[0].ID)
}

func TestHandler_CreatePostUnknownAuthor(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)

	var resp struct {
		CreatePost *gqlPost `json:"createPost"`
	}
	err := c.Post(createPostMutation, &resp, client.Var("post", map[string]any{
		"title":    "orphan",
		"content":  "nobody wrote it",
		"authorId": "42",
		"tags":     []string{},
	}))
	require.NoError(t, err)
	assert.Nil(t, resp.CreatePost)
}

func TestHandler_Queries(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)

	tg := env.createTag(t, "go")
	a := env.createUser(t, "Alice")
	env.createUser(t, "Bob")

	var created struct {
		CreatePost *gqlPost `json:"createPost"`
	}
	c.MustPost(createPostMutation, &created, client.Var("post", map[string]any{
		"title":    "Hello",
		"content":  "world",
		"authorId": a.ID,
		"tags":     []string{tg.ID},
	}))

	var resp struct {
		Authors []struct {
			FirstName string `json:"firstName"`
		} `json:"authors"`
		AuthorsWithPosts []struct {
			FirstName string `json:"firstName"`
			Posts     []struct {
				Title string `json:"title"`
			} `json:"posts"`
		} `json:"authorsWithPosts"`
		Posts []struct {
			Title string `json:"title"`
			Tags  []struct {
				Name string `json:"name"`
			} `json:"tags"`
		} `json:"posts"`
		Tags []struct {
			Name  string `json:"name"`
			Posts []struct {
				Title string `json:"title"`
			} `json:"posts"`
		} `json:"tags"`
		Missing *struct {
			ID string `json:"id"`
		} `json:"missing"`
	}
	c.MustPost(`{
		authors { firstName }
		authorsWithPosts { firstName posts { title } }
		posts { title tags { name } }
		tags { name posts { title } }
		missing: author(id: "999") { id }
	}`, &resp)

	require.Len(t, resp.Authors, 2)
	assert.Equal(t, "Alice", resp.Authors[0].FirstName)
	assert.Equal(t, "Bob", resp.Authors[1].FirstName)

	require.Len(t, resp.AuthorsWithPosts, 2)
	require.Len(t, resp.AuthorsWithPosts[0].Posts, 1)
	assert.Equal(t, "Hello", resp.AuthorsWithPosts[0].Posts[0].Title)
	assert.Empty(t, resp.AuthorsWithPosts[1].Posts)

	require.Len(t, resp.Posts, 1)
	require.Len(t, resp.Posts[0].Tags, 1)
	assert.Equal(t, "go", resp.Posts[0].Tags[0].Name)

	require.Len(t, resp.Tags, 1)
	require.Len(t, resp.Tags[0].Posts, 1)
	assert.Equal(t, "Hello", resp.Tags[0].Posts[0].Title)

	assert.Nil(t, resp.Missing)
}

func TestHandler_Introspection(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)

	var resp struct {
		Schema struct {
			QueryType struct {
				Name string `json:"name"`
			} `json:"queryType"`
			SubscriptionType struct {
				Name string `json:"name"`
			} `json:"subscriptionType"`
		} `json:"__schema"`
		Type struct {
			Name   string `json:"name"`
			Fields []struct {
				Name string `json:"name"`
			} `json:"fields"`
		} `json:"__type"`
	}
	c.MustPost(`{
		__schema { queryType { name } subscriptionType { name } }
		__type(name: "Post") { name fields { name } }
	}`, &resp)

	assert.Equal(t, "Query", resp.Schema.QueryType.Name)
	assert.Equal(t, "Subscription", resp.Schema.SubscriptionType.Name)
	assert.Equal(t, "Post", resp.Type.Name)

	names := make([]string, 0, len(resp.Type.Fields))
	for _, f := range resp.Type.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "title", "content", "author", "tags"}, names)
}

func TestHandler_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)

	var resp map[string]any
	err := c.Post(`{ posts { unknownField } }`, &resp)
	assert.Error(t, err)
}

func TestHandler_PostAddedSubscription(t *testing.T) {
	env := newTestEnv(t)
	manager := subscription.NewSubscriptionManager()
	defer manager.Close()
	env.resolver.SubscriptionManager = manager
	c := newTestClient(t, env)

	a := env.createUser(t, "A")

	sub := c.Websocket(`subscription { postAdded { id title author { firstName } } }`)
	defer sub.Close()

	// ждем, пока сервер зарегистрирует подписку
	require.Eventually(t, func() bool {
		return manager.Subscribers(subscription.PostAdded) == 1
	}, 2*time.Second, 10*time.Millisecond)

	var created struct {
		CreatePost *gqlPost `json:"createPost"`
	}
	c.MustPost(createPostMutation, &created, client.Var("post", map[string]any{
		"title":    "live",
		"content":  "streamed",
		"authorId": a.ID,
		"tags":     []string{},
	}))
	require.NotNil(t, created.CreatePost)

	var event struct {
		PostAdded struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Author struct {
				FirstName string `json:"firstName"`
			} `json:"author"`
		} `json:"postAdded"`
	}
	require.NoError(t, sub.Next(&event))
	assert.Equal(t, created.CreatePost.ID, event.PostAdded.ID)
	assert.Equal(t, "live", event.PostAdded.Title)
	assert.Equal(t, "A", event.PostAdded.Author.FirstName)
}

func TestNewRouter(t *testing.T) {
	env := newTestEnv(t)
	srv := NewHandler(env.resolver, DefaultHandlerOptions)

	t.Run("Playground", func(t *testing.T) {
		router := NewRouter(srv, DefaultHandlerOptions)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("Playground disabled", func(t *testing.T) {
		router := NewRouter(srv, HandlerOptions{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Query endpoint", func(t *testing.T) {
		router := NewRouter(srv, DefaultHandlerOptions)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query?query=%7Btags%7Bid%7D%7D", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"tags":[]}}`, rec.Body.String())
	})
}
