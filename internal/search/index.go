package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/heartmarshall/dictnorm/internal/adapter/ndjson"
	"github.com/heartmarshall/dictnorm/internal/domain"
)

const defaultBatchSize = 10000

// Index is a bleve index of entries keyed by "source:headword".
type Index struct {
	idx       bleve.Index
	log       *slog.Logger
	batchSize int
}

// Create builds an empty index at path, replacing any existing one.
func Create(path string, log *slog.Logger, batchSize int) (*Index, error) {
	m, err := NewMapping()
	if err != nil {
		return nil, fmt.Errorf("build index mapping: %w", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	idx, err := bleve.New(path, m)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return newIndex(idx, log, batchSize), nil
}

// Open opens an existing index read-write.
func Open(path string, log *slog.Logger) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return newIndex(idx, log, 0), nil
}

// NewMemOnly returns an in-memory index.
func NewMemOnly(log *slog.Logger, batchSize int) (*Index, error) {
	m, err := NewMapping()
	if err != nil {
		return nil, fmt.Errorf("build index mapping: %w", err)
	}
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return newIndex(idx, log, batchSize), nil
}

func newIndex(idx bleve.Index, log *slog.Logger, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Index{idx: idx, log: log.With("component", "search"), batchSize: batchSize}
}

// Close closes the underlying index.
func (ix *Index) Close() error {
	return ix.idx.Close()
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() (uint64, error) {
	return ix.idx.DocCount()
}

// IndexEntries adds entries in batches and returns how many were indexed.
// A later entry with the same document id replaces an earlier one.
func (ix *Index) IndexEntries(ctx context.Context, entries []domain.Entry) (int, error) {
	batch := ix.idx.NewBatch()
	n := 0
	for _, e := range entries {
		if err := ix.add(ctx, batch, e); err != nil {
			return n, err
		}
		n++
		if batch.Size() >= ix.batchSize {
			if err := ix.idx.Batch(batch); err != nil {
				return n, fmt.Errorf("index batch: %w", err)
			}
			batch.Reset()
		}
	}
	if err := ix.idx.Batch(batch); err != nil {
		return n, fmt.Errorf("index batch: %w", err)
	}
	return n, nil
}

// IndexFile indexes every record of an ndjson corpus file. Records without a
// source tag take the file stem.
func (ix *Index) IndexFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	batch := ix.idx.NewBatch()
	n := 0

	err = ndjson.Scan(f, func(e domain.Entry) error {
		if e.SourceTag == "" {
			e.SourceTag = stem
		}
		if err := ix.add(ctx, batch, e); err != nil {
			return err
		}
		n++
		if n%ix.batchSize == 0 {
			if err := ix.idx.Batch(batch); err != nil {
				return fmt.Errorf("index batch: %w", err)
			}
			ix.log.Info("indexed entries", slog.String("file", path), slog.Int("count", n))
			batch.Reset()
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := ix.idx.Batch(batch); err != nil {
		return n, fmt.Errorf("index batch: %w", err)
	}
	return n, nil
}

// Build indexes each corpus file in order and returns the total count.
func (ix *Index) Build(ctx context.Context, paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		ix.log.Info("indexing file", slog.String("file", path))
		n, err := ix.IndexFile(ctx, path)
		total += n
		if err != nil {
			return total, fmt.Errorf("index %s: %w", path, err)
		}
		ix.log.Info("indexed file", slog.String("file", path), slog.Int("count", n))
	}
	return total, nil
}

var errNoHeadword = errors.New("entry has no headword")

func (ix *Index) add(ctx context.Context, batch *bleve.Batch, e domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Headword == "" {
		return errNoHeadword
	}
	doc, err := toDocument(e)
	if err != nil {
		return err
	}
	return batch.Index(e.DocumentID(), doc)
}

func toDocument(e domain.Entry) (map[string]any, error) {
	record, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode record %q: %w", e.Headword, err)
	}

	defs := make([]map[string]any, len(e.Definitions))
	for i, d := range e.Definitions {
		defs[i] = map[string]any{
			"readings":      d.Readings,
			"readingsPlain": d.ReadingsPlain,
			"meanings":      d.Meanings,
		}
	}

	return map[string]any{
		FieldHeadword:      e.Headword,
		FieldVariants:      e.ScriptVariants,
		fieldHeadwordExact: e.Headword,
		fieldVariantsExact: e.ScriptVariants,
		FieldSource:        e.SourceTag,
		"definitions":      defs,
		fieldRecord:        string(record),
	}, nil
}
