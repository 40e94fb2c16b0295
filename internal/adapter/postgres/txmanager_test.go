package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictnorm/internal/adapter/postgres"
	"github.com/heartmarshall/dictnorm/internal/adapter/postgres/testhelper"
)

func entryExists(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM entries WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("entryExists query: %v", err)
	}
	return exists
}

func insertEntry(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, headword string) error {
	q := postgres.QuerierFromCtx(ctx, pool)
	_, err := q.Exec(ctx,
		`INSERT INTO entries (id, headword, source_tag) VALUES ($1, $2, 'test')`,
		id, headword,
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	id := uuid.New()
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertEntry(ctx, pool, id, "天")
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if !entryExists(t, pool, id) {
		t.Fatal("expected entry to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	id := uuid.New()
	sentinel := errors.New("stop")
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertEntry(ctx, pool, id, "地"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx error = %v, want sentinel", err)
	}
	if entryExists(t, pool, id) {
		t.Fatal("expected entry to be rolled back")
	}
}

func TestRunInTx_NestedUsesSavepoint(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	outer, inner := uuid.New(), uuid.New()
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertEntry(ctx, pool, outer, "人"); err != nil {
			return err
		}
		innerErr := tm.RunInTx(ctx, func(ctx context.Context) error {
			if err := insertEntry(ctx, pool, inner, "口"); err != nil {
				return err
			}
			return errors.New("discard inner")
		})
		if innerErr == nil {
			t.Error("expected inner error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if !entryExists(t, pool, outer) {
		t.Error("expected outer entry to be committed")
	}
	if entryExists(t, pool, inner) {
		t.Error("expected inner entry to be rolled back to the savepoint")
	}
}
