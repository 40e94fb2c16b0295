// Package ndjson stores entries as newline-delimited JSON, one compact
// record per line. Files are only ever appended to.
package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/heartmarshall/dictnorm/internal/domain"
)

// Store appends entries to a writer.
type Store struct {
	w      *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewStore writes to w. The caller owns w.
func NewStore(w io.Writer) *Store {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Store{w: bw, enc: enc}
}

// Open opens path for appending, creating it if needed.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ndjson store: %w", err)
	}
	s := NewStore(f)
	s.closer = f
	return s, nil
}

// AppendEntries writes entries in order and flushes. Every entry is new to
// an append-only file, so the count is len(entries).
func (s *Store) AppendEntries(ctx context.Context, entries []domain.Entry) (int, error) {
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.enc.Encode(entries[i]); err != nil {
			return i, fmt.Errorf("encode entry %q: %w", entries[i].Headword, err)
		}
	}
	if err := s.w.Flush(); err != nil {
		return 0, fmt.Errorf("flush ndjson store: %w", err)
	}
	return len(entries), nil
}

// Close flushes buffered records and closes the file opened by Open.
func (s *Store) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

// ErrInvalidRecord marks a line that does not decode into an entry.
var ErrInvalidRecord = errors.New("invalid ndjson record")

// Scan decodes every record of r in order and calls fn for each.
// Blank lines are ignored.
func Scan(r io.Reader, fn func(domain.Entry) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var e domain.Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidRecord, line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan ndjson: %w", err)
	}
	return nil
}

// ReadFile decodes all records of the file at path.
func ReadFile(path string) ([]domain.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ndjson file: %w", err)
	}
	defer f.Close()

	var entries []domain.Entry
	err = Scan(f, func(e domain.Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// Reader looks entries up by scanning an ndjson file.
type Reader struct {
	path string
}

// NewReader returns a Reader over the file at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// FindByHeadword returns, in file order, the entries whose headword or script
// variant equals headword. An empty source matches every source.
// Returns domain.ErrNotFound when nothing matches.
func (r *Reader) FindByHeadword(ctx context.Context, headword, source string) ([]domain.Entry, error) {
	headword = domain.NormalizeQuery(headword)
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open ndjson file: %w", err)
	}
	defer f.Close()

	var out []domain.Entry
	err = Scan(f, func(e domain.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if source != "" && e.SourceTag != source {
			return nil
		}
		if e.Headword == headword || slices.Contains(e.ScriptVariants, headword) {
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("entry %s: %w", headword, domain.ErrNotFound)
	}
	return out, nil
}
