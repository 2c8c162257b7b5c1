package graph

import (
	"testing"

	"github.com/99designs/gqlgen/client"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VitaminP8/postgraph/graph/generated"
)

func TestExecutableSchema_Complexity(t *testing.T) {
	var gotID string
	cfg := generated.Config{Resolvers: &Resolver{}}
	cfg.Complexity.Query.Author = func(childComplexity int, id string) int {
		gotID = id
		return 10 + childComplexity
	}

	t.Run("Arguments are passed to complexity func", func(t *testing.T) {
		es := generated.NewExecutableSchema(cfg)

		c, ok := es.Complexity("Query", "author", 2, map[string]any{"id": "42"})
		require.True(t, ok)
		assert.Equal(t, 12, c)
		assert.Equal(t, "42", gotID)
	})

	t.Run("Field without complexity func", func(t *testing.T) {
		es := generated.NewExecutableSchema(cfg)

		_, ok := es.Complexity("Query", "posts", 1, nil)
		assert.False(t, ok)

		_, ok = es.Complexity("Query", "unknown", 1, nil)
		assert.False(t, ok)
	})

	t.Run("Limit rejects expensive operation", func(t *testing.T) {
		env := newTestEnv(t)
		limited := cfg
		limited.Resolvers = env.resolver

		srv := handler.New(generated.NewExecutableSchema(limited))
		srv.AddTransport(transport.POST{})
		srv.Use(extension.FixedComplexityLimit(5))
		c := client.New(srv)

		var resp map[string]any
		err := c.Post(`{ author(id: "1") { id } }`, &resp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "operation has complexity 11, which exceeds the limit of 5")

		// для posts функция сложности не задана, считается по умолчанию
		var posts struct {
			Posts []struct {
				ID string `json:"id"`
			} `json:"posts"`
		}
		require.NoError(t, c.Post(`{ posts { id } }`, &posts))
		assert.Empty(t, posts.Posts)
	})
}

func TestHandler_IntrospectionArguments(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)

	type inputValue struct {
		Name         string `json:"name"`
		IsDeprecated bool   `json:"isDeprecated"`
		Type         struct {
			Kind   string `json:"kind"`
			OfType *struct {
				Name string `json:"name"`
			} `json:"ofType"`
		} `json:"type"`
	}
	var resp struct {
		Input struct {
			Kind        string       `json:"kind"`
			IsOneOf     bool         `json:"isOneOf"`
			InputFields []inputValue `json:"inputFields"`
		} `json:"input"`
		Query struct {
			Fields []struct {
				Name string       `json:"name"`
				Args []inputValue `json:"args"`
			} `json:"fields"`
		} `json:"query"`
		Schema struct {
			Directives []struct {
				Name         string       `json:"name"`
				IsRepeatable bool         `json:"isRepeatable"`
				Locations    []string     `json:"locations"`
				Args         []inputValue `json:"args"`
			} `json:"directives"`
		} `json:"__schema"`
	}
	c.MustPost(`{
		input: __type(name: "CreatePostInput") {
			kind
			isOneOf
			inputFields(includeDeprecated: true) { name isDeprecated type { kind ofType { name } } }
		}
		query: __type(name: "Query") {
			fields(includeDeprecated: true) { name args(includeDeprecated: true) { name isDeprecated type { kind ofType { name } } } }
		}
		__schema { directives { name isRepeatable locations args(includeDeprecated: true) { name isDeprecated type { kind } } } }
	}`, &resp)

	assert.Equal(t, "INPUT_OBJECT", resp.Input.Kind)
	assert.False(t, resp.Input.IsOneOf)
	require.Len(t, resp.Input.InputFields, 4)
	names := make([]string, 0, len(resp.Input.InputFields))
	for _, f := range resp.Input.InputFields {
		names = append(names, f.Name)
		assert.False(t, f.IsDeprecated)
		assert.Equal(t, "NON_NULL", f.Type.Kind)
	}
	assert.Equal(t, []string{"title", "content", "authorId", "tags"}, names)
	require.NotNil(t, resp.Input.InputFields[2].Type.OfType)
	assert.Equal(t, "ID", resp.Input.InputFields[2].Type.OfType.Name)

	var authorArgs []inputValue
	for _, f := range resp.Query.Fields {
		if f.Name == "author" {
			authorArgs = f.Args
		}
	}
	require.Len(t, authorArgs, 1)
	assert.Equal(t, "id", authorArgs[0].Name)
	require.NotNil(t, authorArgs[0].Type.OfType)
	assert.Equal(t, "ID", authorArgs[0].Type.OfType.Name)

	directives := map[string][]string{}
	for _, d := range resp.Schema.Directives {
		assert.NotEmpty(t, d.Locations, d.Name)
		args := []string{}
		for _, a := range d.Args {
			args = append(args, a.Name)
		}
		directives[d.Name] = args
	}
	assert.Equal(t, []string{"if"}, directives["include"])
	assert.Equal(t, []string{"reason"}, directives["deprecated"])
}
