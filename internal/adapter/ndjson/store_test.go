package ndjson

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictnorm/internal/domain"
)

func sampleEntry() domain.Entry {
	return domain.Entry{
		Headword:       "測",
		ScriptVariants: []string{"测"},
		SourceTag:      "c",
		Definitions: []domain.Definition{
			domain.NewDefinition([]string{"ts'ak"}, []string{"to measure <land>", "a & b"}),
		},
	}
}

func TestStore_AppendEntries_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewStore(&buf)

	n, err := s.AppendEntries(context.Background(), []domain.Entry{sampleEntry()})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	want := `{"headword":"測","scriptVariants":["测"],"sourceTag":"c","definitions":[{"readings":["ts'ak"],"readingsPlain":["tshak"],"meanings":["to measure <land>","a & b"]}]}` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestStore_EmptyMeaningsEncodeAsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := sampleEntry()
	e.Definitions = []domain.Definition{domain.NewDefinition([]string{"a"}, nil)}

	_, err := NewStore(&buf).AppendEntries(context.Background(), []domain.Entry{e})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"meanings":[]`)
}

func TestOpen_Appends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.ndjson")

	for range 2 {
		s, err := Open(path)
		require.NoError(t, err)
		_, err = s.AppendEntries(context.Background(), []domain.Entry{sampleEntry()})
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	entries, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, sampleEntry(), entries[0])
}

func TestScan_InvalidRecord(t *testing.T) {
	t.Parallel()

	err := Scan(strings.NewReader("{\"headword\":\"a\"}\n\nnot json\n"), func(domain.Entry) error { return nil })
	assert.True(t, errors.Is(err, ErrInvalidRecord))
	assert.Contains(t, err.Error(), "line 3")
}

func TestScan_StopsOnCallbackError(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	calls := 0
	err := Scan(strings.NewReader("{}\n{}\n"), func(domain.Entry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	n, err := NewStore(&buf).AppendEntries(ctx, []domain.Entry{sampleEntry()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())
}

func TestReader_FindByHeadword(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.ndjson")
	other := sampleEntry()
	other.SourceTag = "q"

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.AppendEntries(context.Background(), []domain.Entry{sampleEntry(), other})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	r := NewReader(path)

	got, err := r.FindByHeadword(context.Background(), "測", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = r.FindByHeadword(context.Background(), "测", "q")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q", got[0].SourceTag)

	_, err = r.FindByHeadword(context.Background(), "天", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
