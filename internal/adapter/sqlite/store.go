// Package sqlite stores normalized entries in an embedded SQLite database.
// The schema mirrors the PostgreSQL one; list columns are JSON arrays.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/migrations"
)

// Store implements importer.Sink over a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := migrations.Up(ctx, db, migrations.SQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Migrate applies pending migrations to the database at path and returns
// how many ran.
func Migrate(ctx context.Context, path string) (int, error) {
	db, err := openDB(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return migrations.Up(ctx, db, migrations.SQLite)
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// One writer at a time; SQLite serializes them anyway.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendEntries inserts entries in one transaction, skipping rows whose
// content-derived id already exists. Returns the number of new entries.
func (s *Store) AppendEntries(ctx context.Context, entries []domain.Entry) (inserted int, err error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
			inserted = 0
		}
	}()

	for _, e := range entries {
		n, err := insertEntry(ctx, tx, e)
		if err != nil {
			return 0, fmt.Errorf("insert entry %q: %w", e.Headword, err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, e domain.Entry) (int, error) {
	id := e.ID()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (id, headword, source_tag, script_variants)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		id.String(), e.Headword, e.SourceTag, jsonList(e.ScriptVariants),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	for pos, d := range e.Definitions {
		defID := domain.DefinitionID(id, pos).String()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO definitions (id, entry_id, position, readings, readings_plain)
			 VALUES (?, ?, ?, ?, ?)`,
			defID, id.String(), pos, jsonList(d.Readings), jsonList(d.ReadingsPlain),
		); err != nil {
			return 0, err
		}
		for mpos, m := range d.Meanings {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meanings (definition_id, position, meaning) VALUES (?, ?, ?)`,
				defID, mpos, m,
			); err != nil {
				return 0, err
			}
		}
	}
	return 1, nil
}

// FindByHeadword returns the entries whose headword or script variant equals
// headword, in insertion order. An empty source matches every source.
// Returns domain.ErrNotFound when nothing matches.
func (s *Store) FindByHeadword(ctx context.Context, headword, source string) ([]domain.Entry, error) {
	headword = domain.NormalizeQuery(headword)
	where := sq.And{sq.Or{
		sq.Eq{"e.headword": headword},
		sq.Expr("EXISTS (SELECT 1 FROM json_each(e.script_variants) WHERE value = ?)", headword),
	}}
	if source != "" {
		where = append(where, sq.Eq{"e.source_tag": source})
	}

	query, args, err := sq.Select(
		"e.id", "e.headword", "e.source_tag", "e.script_variants",
		"d.id", "d.readings", "d.readings_plain",
	).
		From("entries e").
		Join("definitions d ON d.entry_id = e.id").
		Where(where).
		OrderBy("e.seq", "d.position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", headword, err)
	}
	defer rows.Close()

	var (
		entries []domain.Entry
		defIDs  [][]string
		lastID  string
	)
	for rows.Next() {
		var (
			id, defID                 string
			e                         domain.Entry
			variants, readings, plain string
		)
		if err := rows.Scan(&id, &e.Headword, &e.SourceTag, &variants, &defID, &readings, &plain); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if len(entries) == 0 || id != lastID {
			if err := json.Unmarshal([]byte(variants), &e.ScriptVariants); err != nil {
				return nil, fmt.Errorf("decode script variants: %w", err)
			}
			entries = append(entries, e)
			defIDs = append(defIDs, nil)
			lastID = id
		}

		var d domain.Definition
		if err := json.Unmarshal([]byte(readings), &d.Readings); err != nil {
			return nil, fmt.Errorf("decode readings: %w", err)
		}
		if err := json.Unmarshal([]byte(plain), &d.ReadingsPlain); err != nil {
			return nil, fmt.Errorf("decode plain readings: %w", err)
		}
		last := len(entries) - 1
		entries[last].Definitions = append(entries[last].Definitions, d)
		defIDs[last] = append(defIDs[last], defID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("entry %s: %w", headword, domain.ErrNotFound)
	}

	for i := range entries {
		for j, defID := range defIDs[i] {
			meanings, err := s.meanings(ctx, defID)
			if err != nil {
				return nil, err
			}
			entries[i].Definitions[j].Meanings = meanings
		}
	}
	return entries, nil
}

func (s *Store) meanings(ctx context.Context, defID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meaning FROM meanings WHERE definition_id = ? ORDER BY position`, defID)
	if err != nil {
		return nil, fmt.Errorf("query meanings: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan meaning: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func jsonList(s []string) string {
	if s == nil {
		s = []string{}
	}
	b, _ := json.Marshal(s)
	return string(b)
}
