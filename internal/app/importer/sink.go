// Package importer runs a raw dictionary table through a layout adapter and
// the group aligner, and hands the resulting entries to a record store.
package importer

import (
	"context"

	"github.com/heartmarshall/dictnorm/internal/domain"
)

// Sink is the record store contract consumed by the pipeline.
// Implemented by ndjson.Store, entry.Repo (postgres) and sqlite.Store.
type Sink interface {
	// AppendEntries stores entries in order and returns how many were new.
	AppendEntries(ctx context.Context, entries []domain.Entry) (int, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, entries []domain.Entry) (int, error)

func (f SinkFunc) AppendEntries(ctx context.Context, entries []domain.Entry) (int, error) {
	return f(ctx, entries)
}
