// Package dataloader provides per-request DataLoaders that batch the
// definition loads of GraphQL entry fields into single SQL calls.
package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/dictnorm/internal/adapter/postgres/entry"
	"github.com/heartmarshall/dictnorm/internal/domain"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

type definitionRepo interface {
	DefinitionsByEntryIDs(ctx context.Context, entryIDs []uuid.UUID) ([]entry.DefinitionWithEntryID, error)
}

// Repos holds the repositories behind the loaders.
type Repos struct {
	Definition definitionRepo
}

// Loaders holds the per-request loader instances. Create one set per request
// with NewLoaders: loaders cache results for their lifetime.
type Loaders struct {
	DefinitionsByEntryID *dataloader.Loader[uuid.UUID, []domain.Definition]
}

// NewLoaders creates the loaders backed by repos.
func NewLoaders(repos *Repos) *Loaders {
	return &Loaders{
		DefinitionsByEntryID: dataloader.NewBatchedLoader(
			newDefinitionsBatchFn(repos.Definition),
			dataloader.WithWait[uuid.UUID, []domain.Definition](wait),
			dataloader.WithBatchCapacity[uuid.UUID, []domain.Definition](maxBatch),
		),
	}
}

func newDefinitionsBatchFn(repo definitionRepo) dataloader.BatchFunc[uuid.UUID, []domain.Definition] {
	return func(ctx context.Context, keys []uuid.UUID) []*dataloader.Result[[]domain.Definition] {
		rows, err := repo.DefinitionsByEntryIDs(ctx, keys)
		if err != nil {
			results := make([]*dataloader.Result[[]domain.Definition], len(keys))
			for i := range results {
				results[i] = &dataloader.Result[[]domain.Definition]{Error: err}
			}
			return results
		}

		grouped := make(map[uuid.UUID][]domain.Definition, len(keys))
		for _, r := range rows {
			grouped[r.EntryID] = append(grouped[r.EntryID], r.Definition)
		}

		results := make([]*dataloader.Result[[]domain.Definition], len(keys))
		for i, key := range keys {
			defs, ok := grouped[key]
			if !ok {
				defs = []domain.Definition{}
			}
			results[i] = &dataloader.Result[[]domain.Definition]{Data: defs}
		}
		return results
	}
}

type contextKey string

const loadersKey contextKey = "dataloaders"

// WithLoaders stores Loaders in the context.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, l)
}

// FromContext returns the Loaders stored in ctx, or nil.
func FromContext(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// Middleware creates fresh Loaders for every request.
func Middleware(repos *Repos) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(repos))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
