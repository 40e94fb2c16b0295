// Package app wires configuration to the stores, converters and pipelines
// used by the command-line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/heartmarshall/dictnorm/internal/adapter/ndjson"
	"github.com/heartmarshall/dictnorm/internal/adapter/postgres"
	"github.com/heartmarshall/dictnorm/internal/adapter/postgres/entry"
	"github.com/heartmarshall/dictnorm/internal/adapter/sqlite"
	"github.com/heartmarshall/dictnorm/internal/app/importer"
	"github.com/heartmarshall/dictnorm/internal/config"
	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/script"
	"github.com/heartmarshall/dictnorm/migrations"
)

// ErrNoSchema is returned when migrating a store that has no schema.
var ErrNoSchema = errors.New("store driver has no schema to migrate")

// Finder looks entries up by headword or script variant.
type Finder interface {
	FindByHeadword(ctx context.Context, headword, source string) ([]domain.Entry, error)
}

// Compile-time interface assertions.
var (
	_ importer.Sink = (*ndjson.Store)(nil)
	_ importer.Sink = (*entry.Repo)(nil)
	_ importer.Sink = (*sqlite.Store)(nil)
	_ Finder        = (*ndjson.Reader)(nil)
	_ Finder        = (*entry.Repo)(nil)
	_ Finder        = (*sqlite.Store)(nil)
)

// Store is an opened record store.
type Store struct {
	Sink   importer.Sink
	Finder Finder
	close  func() error
}

// Close releases the store's file or connections.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the store selected by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case config.DriverNDJSON:
		s, err := ndjson.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return &Store{Sink: s, Finder: ndjson.NewReader(cfg.Store.Path), close: s.Close}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		repo := entry.New(pool, postgres.NewTxManager(pool))
		return &Store{Sink: repo, Finder: repo, close: func() error { pool.Close(); return nil }}, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return &Store{Sink: s, Finder: s, close: s.Close}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Migrate applies pending schema migrations to the configured store.
func Migrate(ctx context.Context, cfg *config.Config) (int, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return 0, err
		}
		defer pool.Close()

		db := postgres.OpenDB(pool)
		defer db.Close()
		return migrations.Up(ctx, db, migrations.Postgres)

	case config.DriverSQLite:
		return sqlite.Migrate(ctx, cfg.Store.Path)
	}
	return 0, fmt.Errorf("%w: %s", ErrNoSchema, cfg.Store.Driver)
}

// OpenDiagnostics returns the writer for diagnostic lines. "-" is stderr and
// an empty path disables the stream; diagnostics are still logged.
func OpenDiagnostics(path string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch path {
	case "":
		return nil, noop, nil
	case "-":
		return os.Stderr, noop, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open diagnostics file: %w", err)
	}
	return f, f.Close, nil
}

// NewConverter builds the script converter from config.
func NewConverter(cfg config.ScriptConfig) (script.Converter, error) {
	return script.New(cfg.Profile, cfg.CacheSize)
}

// Convert runs one import of the table at input into the configured store.
func Convert(ctx context.Context, cfg *config.Config, log *slog.Logger, input string) (importer.Result, error) {
	lay, err := importer.NewLayout(cfg.Import.Layout, cfg.Import.SourceTag)
	if err != nil {
		return importer.Result{}, err
	}

	conv, err := NewConverter(cfg.Script)
	if err != nil {
		return importer.Result{}, err
	}

	diag, closeDiag, err := OpenDiagnostics(cfg.Import.DiagnosticsPath)
	if err != nil {
		return importer.Result{}, err
	}

	var sink importer.Sink = importer.SinkFunc(func(_ context.Context, entries []domain.Entry) (int, error) {
		return len(entries), nil
	})
	var store *Store
	if !cfg.Import.DryRun {
		store, err = OpenStore(ctx, cfg)
		if err != nil {
			return importer.Result{}, errors.Join(err, closeDiag())
		}
		sink = store.Sink
	}

	p := importer.NewPipeline(log, lay, conv, sink, diag, importer.Config{
		BatchSize: cfg.Import.BatchSize,
		DryRun:    cfg.Import.DryRun,
	})
	res, err := p.Run(ctx, input)

	err = errors.Join(err, closeDiag())
	if store != nil {
		err = errors.Join(err, store.Close())
	}
	return res, err
}
