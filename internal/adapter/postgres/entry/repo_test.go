package entry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictnorm/internal/adapter/postgres"
	"github.com/heartmarshall/dictnorm/internal/adapter/postgres/entry"
	"github.com/heartmarshall/dictnorm/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/dictnorm/internal/domain"
)

func sampleEntries() []domain.Entry {
	return []domain.Entry{
		{
			Headword:       "測",
			ScriptVariants: []string{"测"},
			SourceTag:      "pgtest",
			Definitions: []domain.Definition{
				domain.NewDefinition([]string{"ts'ak"}, []string{"to measure", "to survey"}),
				domain.NewDefinition([]string{"ts'ik", "tsak"}, []string{"to guess"}),
			},
		},
		{
			Headword:       "天",
			ScriptVariants: []string{"天"},
			SourceTag:      "pgtest",
			Definitions: []domain.Definition{
				domain.NewDefinition([]string{"t'ien"}, nil),
			},
		},
	}
}

func newRepo(t *testing.T) *entry.Repo {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool)
	return entry.New(pool, postgres.NewTxManager(pool))
}

func TestRepo_AppendAndFind(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	n, err := repo.AppendEntries(ctx, sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.FindByHeadword(ctx, "測", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sampleEntries()[0], got[0])

	byVariant, err := repo.FindByHeadword(ctx, "测", "pgtest")
	require.NoError(t, err)
	require.Len(t, byVariant, 1)
	assert.Equal(t, "測", byVariant[0].Headword)

	empty, err := repo.FindByHeadword(ctx, "天", "")
	require.NoError(t, err)
	require.Len(t, empty, 1)
	assert.Equal(t, []string{}, empty[0].Definitions[0].Meanings)
}

func TestRepo_AppendIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.AppendEntries(ctx, sampleEntries())
	require.NoError(t, err)

	n, err := repo.AppendEntries(ctx, sampleEntries())
	require.NoError(t, err)
	assert.Zero(t, n, "re-running the same input inserts nothing")

	got, err := repo.FindByHeadword(ctx, "測", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Definitions, 2)
}

func TestRepo_FindByHeadword_NotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.FindByHeadword(context.Background(), "無", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = repo.AppendEntries(context.Background(), sampleEntries())
	require.NoError(t, err)
	_, err = repo.FindByHeadword(context.Background(), "測", "other")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRepo_ListByHeadwordAndDefinitions(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	entries := sampleEntries()
	_, err := repo.AppendEntries(ctx, entries)
	require.NoError(t, err)

	headers, err := repo.ListByHeadword(ctx, " 测 ", "")
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, domain.EntryHeader{
		ID:             entries[0].ID(),
		Headword:       "測",
		ScriptVariants: []string{"测"},
		SourceTag:      "pgtest",
	}, headers[0])

	defs, err := repo.DefinitionsByEntryIDs(ctx, []uuid.UUID{entries[0].ID(), entries[1].ID(), uuid.New()})
	require.NoError(t, err)
	require.Len(t, defs, 3)

	byEntry := map[uuid.UUID][]domain.Definition{}
	for _, d := range defs {
		byEntry[d.EntryID] = append(byEntry[d.EntryID], d.Definition)
	}
	assert.Equal(t, entries[0].Definitions, byEntry[entries[0].ID()])
	assert.Equal(t, entries[1].Definitions, byEntry[entries[1].ID()])

	_, err = repo.ListByHeadword(ctx, "無", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	empty, err := repo.DefinitionsByEntryIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepo_SearchMeanings(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.AppendEntries(ctx, sampleEntries())
	require.NoError(t, err)

	got, err := repo.SearchMeanings(ctx, "measuring", "", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "測", got[0].Headword)

	got, err = repo.SearchMeanings(ctx, "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepo_AppendEntries_Empty(t *testing.T) {
	repo := newRepo(t)

	n, err := repo.AppendEntries(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func senseRows() []domain.Entry {
	return []domain.Entry{
		{
			Headword:       "行",
			ScriptVariants: []string{"行"},
			SourceTag:      "r",
			Definitions:    []domain.Definition{domain.NewDefinition([]string{"hang"}, []string{"row"})},
		},
		{
			Headword:       "行",
			ScriptVariants: []string{"行"},
			SourceTag:      "r",
			Definitions:    []domain.Definition{domain.NewDefinition([]string{"hang"}, []string{"firm", "business"})},
		},
	}
}

func TestRepo_SameReadingDistinctMeanings(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	n, err := repo.AppendEntries(ctx, senseRows())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.FindByHeadword(ctx, "行", "r")
	require.NoError(t, err)
	assert.Equal(t, senseRows(), got)

	n, err = repo.AppendEntries(ctx, senseRows())
	require.NoError(t, err)
	assert.Zero(t, n)
}
