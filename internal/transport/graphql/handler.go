package graphql

import (
	"log/slog"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/heartmarshall/dictnorm/internal/config"
)

const queryCacheSize = 1000

// NewHandler serves es over GET and POST. Parsed queries are cached and
// every operation is held to cfg.ComplexityLimit.
func NewHandler(log *slog.Logger, es graphql.ExecutableSchema, cfg config.GraphQLConfig) *handler.Server {
	srv := handler.New(es)
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](queryCacheSize))
	srv.Use(extension.FixedComplexityLimit(cfg.ComplexityLimit))
	srv.SetErrorPresenter(NewErrorPresenter(log))

	return srv
}
