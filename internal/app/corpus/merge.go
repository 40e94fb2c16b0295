// Package corpus combines per-source ndjson dictionaries into one corpus.
package corpus

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/heartmarshall/dictnorm/internal/adapter/ndjson"
	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/script"
)

const ext = ".ndjson"

// Files lists the *.ndjson files of dir sorted by name.
func Files(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list corpus dir: %w", err)
	}

	var out []string
	for _, de := range des {
		if de.IsDir() || filepath.Ext(de.Name()) != ext {
			continue
		}
		out = append(out, filepath.Join(dir, de.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// SourceTag is the file stem of path: "dictionaries/c.ndjson" -> "c".
func SourceTag(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Stats counts what Merge wrote.
type Stats struct {
	Files   int
	Entries int
}

// Merge rewrites every dictionary in dir to w. Each record takes its source
// tag from the file it came from, and its script variants and plain readings
// are derived again. Output order is file name, then record order. When w is
// a file inside dir it is not read back as an input.
func Merge(ctx context.Context, dir string, w io.Writer, conv script.Converter) (Stats, error) {
	var stats Stats

	paths, err := Files(dir)
	if err != nil {
		return stats, err
	}
	paths = excludeOutput(paths, w)

	out := ndjson.NewStore(w)
	for _, path := range paths {
		n, err := mergeFile(ctx, path, out, conv)
		stats.Entries += n
		if err != nil {
			return stats, fmt.Errorf("merge %s: %w", filepath.Base(path), err)
		}
		stats.Files++
	}
	return stats, out.Close()
}

func excludeOutput(paths []string, w io.Writer) []string {
	f, ok := w.(*os.File)
	if !ok {
		return paths
	}
	outInfo, err := f.Stat()
	if err != nil {
		return paths
	}
	return slices.DeleteFunc(paths, func(p string) bool {
		fi, err := os.Stat(p)
		return err == nil && os.SameFile(fi, outInfo)
	})
}

func mergeFile(ctx context.Context, path string, out *ndjson.Store, conv script.Converter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	source := SourceTag(path)
	n := 0
	err = ndjson.Scan(f, func(e domain.Entry) error {
		e, err := Rederive(e, source, conv)
		if err != nil {
			return err
		}
		if _, err := out.AppendEntries(ctx, []domain.Entry{e}); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// Rederive returns e retagged with source and with its derived fields
// recomputed from the headword and readings.
func Rederive(e domain.Entry, source string, conv script.Converter) (domain.Entry, error) {
	variants, err := script.Variants(conv, e.Headword)
	if err != nil {
		return domain.Entry{}, err
	}

	defs := make([]domain.Definition, len(e.Definitions))
	for i, d := range e.Definitions {
		defs[i] = domain.NewDefinition(d.Readings, d.Meanings)
	}

	return domain.Entry{
		Headword:       e.Headword,
		ScriptVariants: variants,
		SourceTag:      source,
		Definitions:    defs,
	}, nil
}
