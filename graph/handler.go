package graph

import (
	"context"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/VitaminP8/postgraph/graph/generated"
)

type HandlerOptions struct {
	KeepAlivePingInterval time.Duration
	Playground            bool
}

var DefaultHandlerOptions = HandlerOptions{
	KeepAlivePingInterval: 10 * time.Second,
	Playground:            true,
}

// NewHandler собирает GraphQL сервер с транспортами для запросов и подписок.
func NewHandler(resolver *Resolver, opts HandlerOptions) *handler.Server {
	log := resolver.logger()

	srv := handler.New(generated.NewExecutableSchema(generated.Config{Resolvers: resolver}))

	// подписки идут через websocket
	srv.AddTransport(transport.Websocket{
		KeepAlivePingInterval: opts.KeepAlivePingInterval,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		InitFunc: func(ctx context.Context, _ transport.InitPayload) (context.Context, *transport.InitPayload, error) {
			log.Debug("websocket connection initialized")
			return ctx, nil, nil
		},
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))

	srv.Use(extension.Introspection{})
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New[string](100),
	})

	srv.AroundOperations(func(ctx context.Context, next graphql.OperationHandler) graphql.ResponseHandler {
		oc := graphql.GetOperationContext(ctx)
		if oc.Operation != nil {
			log.Debug("graphql operation",
				zap.String("operation", string(oc.Operation.Operation)),
				zap.String("name", oc.OperationName),
			)
		}
		return next(ctx)
	})

	return srv
}

// NewRouter вешает GraphQL на /query и playground на /.
func NewRouter(srv http.Handler, opts HandlerOptions) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/query", srv)
	if opts.Playground {
		mux.Handle("/", playground.Handler("GraphQL Playground", "/query"))
	}
	return mux
}
