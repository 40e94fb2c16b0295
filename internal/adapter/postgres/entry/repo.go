// Package entry stores normalized dictionary entries in PostgreSQL.
package entry

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/dictnorm/internal/adapter/postgres"
	"github.com/heartmarshall/dictnorm/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo implements importer.Sink and the lookup queries over the
// entries/definitions/meanings tables.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
}

// New creates a new entry repository.
func New(pool *pgxpool.Pool, txm *postgres.TxManager) *Repo {
	return &Repo{pool: pool, txm: txm}
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// AppendEntries inserts entries with their definitions and meanings in one
// transaction. Ids are derived from content, so rows that already exist are
// skipped via ON CONFLICT DO NOTHING and re-running an import is a no-op.
// Returns the number of newly inserted entries.
func (r *Repo) AppendEntries(ctx context.Context, entries []domain.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	var inserted int
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		parents := &pgx.Batch{}
		children := &pgx.Batch{}

		for _, e := range entries {
			id := e.ID()
			parents.Queue(
				`INSERT INTO entries (id, headword, source_tag, script_variants)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (id) DO NOTHING`,
				id, e.Headword, e.SourceTag, nonNil(e.ScriptVariants),
			)

			for pos, d := range e.Definitions {
				defID := domain.DefinitionID(id, pos)
				children.Queue(
					`INSERT INTO definitions (id, entry_id, position, readings, readings_plain)
					 VALUES ($1, $2, $3, $4, $5)
					 ON CONFLICT (id) DO NOTHING`,
					defID, id, pos, d.Readings, d.ReadingsPlain,
				)
				for mpos, m := range d.Meanings {
					children.Queue(
						`INSERT INTO meanings (definition_id, position, meaning)
						 VALUES ($1, $2, $3)
						 ON CONFLICT (definition_id, position) DO NOTHING`,
						defID, mpos, m,
					)
				}
			}
		}

		n, err := r.sendBatchExec(ctx, parents)
		if err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}
		inserted = n

		if _, err := r.sendBatchExec(ctx, children); err != nil {
			return fmt.Errorf("insert definitions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, postgres.MapError(err, "entries batch", entries[0].Headword)
	}

	return inserted, nil
}

// sendBatchExec sends a pgx.Batch and counts affected rows from Exec results.
func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var affected int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch exec: %w", err)
		}
		affected += int(tag.RowsAffected())
	}

	return affected, nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// FindByHeadword returns the entries whose headword or script variant equals
// headword, in insertion order. An empty source matches every source.
// Returns domain.ErrNotFound when nothing matches.
func (r *Repo) FindByHeadword(ctx context.Context, headword, source string) ([]domain.Entry, error) {
	headword = domain.NormalizeQuery(headword)

	entries, err := r.query(ctx, headwordFilter(headword, source), 0)
	if err != nil {
		return nil, postgres.MapError(err, "entry", headword)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("entry %s: %w", headword, domain.ErrNotFound)
	}
	return entries, nil
}

// ListByHeadword matches like FindByHeadword but returns only the entry
// rows. Definitions are fetched separately with DefinitionsByEntryIDs.
func (r *Repo) ListByHeadword(ctx context.Context, headword, source string) ([]domain.EntryHeader, error) {
	headword = domain.NormalizeQuery(headword)

	sqlStr, args, err := psql.
		Select("e.id", "e.headword", "e.source_tag", "e.script_variants").
		From("entries e").
		Where(headwordFilter(headword, source)).
		OrderBy("e.seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, postgres.MapError(err, "entry", headword)
	}
	defer rows.Close()

	var headers []domain.EntryHeader
	for rows.Next() {
		var h domain.EntryHeader
		if err := rows.Scan(&h.ID, &h.Headword, &h.SourceTag, &h.ScriptVariants); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "entry", headword)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("entry %s: %w", headword, domain.ErrNotFound)
	}
	return headers, nil
}

// DefinitionWithEntryID is a definition together with the entry it belongs to.
type DefinitionWithEntryID struct {
	EntryID uuid.UUID
	domain.Definition
}

const definitionsByEntryIDsSQL = `
SELECT d.entry_id, d.readings, d.readings_plain,
       COALESCE(array_agg(m.meaning ORDER BY m.position) FILTER (WHERE m.meaning IS NOT NULL), '{}')
  FROM definitions d
  LEFT JOIN meanings m ON m.definition_id = d.id
 WHERE d.entry_id = ANY($1::uuid[])
 GROUP BY d.id
 ORDER BY d.entry_id, d.position`

// DefinitionsByEntryIDs returns the definitions of several entries in one
// query, ordered by entry then position (batch for DataLoader).
func (r *Repo) DefinitionsByEntryIDs(ctx context.Context, entryIDs []uuid.UUID) ([]DefinitionWithEntryID, error) {
	if len(entryIDs) == 0 {
		return []DefinitionWithEntryID{}, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, definitionsByEntryIDsSQL, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("get definitions by entry_ids: %w", err)
	}
	defer rows.Close()

	out := []DefinitionWithEntryID{}
	for rows.Next() {
		var d DefinitionWithEntryID
		if err := rows.Scan(&d.EntryID, &d.Readings, &d.ReadingsPlain, &d.Meanings); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get definitions by entry_ids: %w", err)
	}
	return out, nil
}

// SearchMeanings runs an English full-text query over meanings and returns
// up to limit matching entries.
func (r *Repo) SearchMeanings(ctx context.Context, query, source string, limit int) ([]domain.Entry, error) {
	if query == "" {
		return []domain.Entry{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	matched := sq.Select("d.entry_id").
		From("meanings m").
		Join("definitions d ON d.id = m.definition_id").
		Where("m.meaning_tsv @@ websearch_to_tsquery('english', ?)", query)
	subSQL, subArgs, err := matched.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build meaning query: %w", err)
	}

	where := sq.And{sq.Expr("e.id IN ("+subSQL+")", subArgs...)}
	if source != "" {
		where = append(where, sq.Eq{"e.source_tag": source})
	}

	entries, err := r.query(ctx, where, limit)
	if err != nil {
		return nil, postgres.MapError(err, "meaning search", query)
	}
	return entries, nil
}

// query loads complete entries matching where. limit counts entries, not
// definition rows; zero means unlimited.
func (r *Repo) query(ctx context.Context, where sq.Sqlizer, limit int) ([]domain.Entry, error) {
	ids := psql.Select("e.id").From("entries e").Where(where).OrderBy("e.seq")
	if limit > 0 {
		ids = ids.Limit(uint64(limit))
	}
	idSQL, idArgs, err := ids.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry query: %w", err)
	}

	sqlStr := `SELECT e.id, e.headword, e.source_tag, e.script_variants,
	       d.readings, d.readings_plain,
	       COALESCE(array_agg(m.meaning ORDER BY m.position) FILTER (WHERE m.meaning IS NOT NULL), '{}')
	  FROM entries e
	  JOIN definitions d ON d.entry_id = e.id
	  LEFT JOIN meanings m ON m.definition_id = d.id
	 WHERE e.id IN (` + idSQL + `)
	 GROUP BY e.seq, e.id, d.id
	 ORDER BY e.seq, d.position`

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sqlStr, idArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		entries []domain.Entry
		lastID  uuid.UUID
	)
	for rows.Next() {
		var (
			id       uuid.UUID
			e        domain.Entry
			d        domain.Definition
			variants []string
		)
		if err := rows.Scan(&id, &e.Headword, &e.SourceTag, &variants, &d.Readings, &d.ReadingsPlain, &d.Meanings); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if len(entries) == 0 || id != lastID {
			e.ScriptVariants = variants
			entries = append(entries, e)
			lastID = id
		}
		last := &entries[len(entries)-1]
		last.Definitions = append(last.Definitions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func headwordFilter(headword, source string) sq.Sqlizer {
	where := sq.And{sq.Or{
		sq.Eq{"e.headword": headword},
		sq.Expr("? = ANY(e.script_variants)", headword),
	}}
	if source != "" {
		where = append(where, sq.Eq{"e.source_tag": source})
	}
	return where
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
