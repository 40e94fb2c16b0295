package corpus_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictnorm/internal/adapter/ndjson"
	"github.com/heartmarshall/dictnorm/internal/app/corpus"
	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/script"
)

var simplified = script.Func(func(s string) (string, error) {
	return strings.NewReplacer("測", "测", "學", "学").Replace(s), nil
})

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestMerge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	// Stale derived fields and tags must be replaced.
	writeFile(t, dir, "r.ndjson",
		`{"headword":"學","scriptVariants":["x"],"sourceTag":"old","definitions":[{"readings":["óh"],"readingsPlain":["?"],"meanings":["to learn"]}]}`+"\n")
	writeFile(t, dir, "c.ndjson",
		`{"headword":"測","scriptVariants":[],"sourceTag":"c","definitions":[{"readings":["ts'ak"],"readingsPlain":[],"meanings":[]}]}`+"\n\n"+
			`{"headword":"天","scriptVariants":[],"sourceTag":"c","definitions":[{"readings":["t'ien"],"readingsPlain":[],"meanings":["sky"]}]}`+"\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.ndjson"), 0o755))

	var out bytes.Buffer
	stats, err := corpus.Merge(context.Background(), dir, &out, simplified)
	require.NoError(t, err)
	assert.Equal(t, corpus.Stats{Files: 2, Entries: 3}, stats)

	var got []domain.Entry
	require.NoError(t, ndjson.Scan(&out, func(e domain.Entry) error {
		got = append(got, e)
		return nil
	}))
	require.Len(t, got, 3)

	assert.Equal(t, "測", got[0].Headword)
	assert.Equal(t, "c", got[0].SourceTag)
	assert.Equal(t, []string{"测"}, got[0].ScriptVariants)
	assert.Equal(t, []string{"tshak"}, got[0].Definitions[0].ReadingsPlain)

	assert.Equal(t, "天", got[1].Headword)

	assert.Equal(t, "學", got[2].Headword)
	assert.Equal(t, "r", got[2].SourceTag)
	assert.Equal(t, []string{"学"}, got[2].ScriptVariants)
	assert.Equal(t, []string{"oh"}, got[2].Definitions[0].ReadingsPlain)
	assert.Equal(t, []string{"to learn"}, got[2].Definitions[0].Meanings)
}

func TestMerge_OutputInsideDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "c.ndjson", `{"headword":"天","definitions":[{"readings":["t'ien"],"meanings":["sky"]}]}`+"\n")

	f, err := os.Create(filepath.Join(dir, "all.ndjson"))
	require.NoError(t, err)
	defer f.Close()

	stats, err := corpus.Merge(context.Background(), dir, f, simplified)
	require.NoError(t, err)
	assert.Equal(t, corpus.Stats{Files: 1, Entries: 1}, stats)

	got, err := ndjson.ReadFile(f.Name())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].SourceTag)
}

func TestMerge_Deterministic(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "b.ndjson", `{"headword":"天","definitions":[{"readings":["t'ien"],"meanings":["sky"]}]}`+"\n")
	writeFile(t, dir, "a.ndjson", `{"headword":"測","definitions":[{"readings":["ts'ak"],"meanings":["to measure"]}]}`+"\n")

	var first, second bytes.Buffer
	_, err := corpus.Merge(context.Background(), dir, &first, simplified)
	require.NoError(t, err)
	_, err = corpus.Merge(context.Background(), dir, &second, simplified)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
	assert.True(t, strings.HasPrefix(first.String(), `{"headword":"測"`))
}

func TestMerge_InvalidRecord(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "c.ndjson", "{not json}\n")

	var out bytes.Buffer
	_, err := corpus.Merge(context.Background(), dir, &out, simplified)
	require.Error(t, err)
	assert.ErrorIs(t, err, ndjson.ErrInvalidRecord)
	assert.Contains(t, err.Error(), "c.ndjson")
}

func TestMerge_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := corpus.Merge(context.Background(), filepath.Join(t.TempDir(), "nope"), &bytes.Buffer{}, script.Identity{})
	assert.Error(t, err)
}

func TestSourceTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "c", corpus.SourceTag("dictionaries/c.ndjson"))
	assert.Equal(t, "qianplus", corpus.SourceTag("/tmp/qianplus.ndjson"))
}
