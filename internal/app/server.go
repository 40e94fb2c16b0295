package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/heartmarshall/dictnorm/internal/adapter/postgres/entry"
	"github.com/heartmarshall/dictnorm/internal/config"
	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/search"
	gql "github.com/heartmarshall/dictnorm/internal/transport/graphql"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/dataloader"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/resolver"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/schema"
	"github.com/heartmarshall/dictnorm/internal/transport/middleware"
)

// Searcher queries a search index.
type Searcher interface {
	Search(q, source string, limit, offset int) (search.Results, error)
	Homophones(q, source string, limit, offset int) (search.Results, error)
	Document(id string) (domain.Entry, error)
}

var _ Searcher = (*search.Index)(nil)

// NewHTTPHandler routes the query server. index may be nil.
func NewHTTPHandler(log *slog.Logger, cfg config.GraphQLConfig, finder Finder, index Searcher) http.Handler {
	res := resolver.NewResolver(log, finder, index)
	es := schema.NewExecutableSchema(schema.Config{Resolvers: res})

	mws := []middleware.Middleware{
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logger(log),
	}
	if repo, ok := finder.(*entry.Repo); ok {
		mws = append(mws, dataloader.Middleware(&dataloader.Repos{Definition: repo}))
	}
	query := middleware.Chain(mws...)(gql.NewHandler(log, es, cfg))

	mux := http.NewServeMux()
	mux.Handle("POST /query", query)
	mux.Handle("GET /query", query)
	mux.Handle("OPTIONS /query", query)
	mux.HandleFunc("GET /live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the query server over the configured store and, when it
// exists, the search index, until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var index Searcher
	if _, err := os.Stat(cfg.Index.Path); err == nil {
		ix, err := search.Open(cfg.Index.Path, log)
		if err != nil {
			return err
		}
		defer ix.Close()
		index = ix
	} else {
		log.WarnContext(ctx, "search index not found, search disabled", slog.String("path", cfg.Index.Path))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      NewHTTPHandler(log, cfg.GraphQL, store.Finder, index),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "server started", slog.String("addr", srv.Addr), slog.String("driver", cfg.Store.Driver))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
