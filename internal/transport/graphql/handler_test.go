package graphql_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictnorm/internal/adapter/postgres/entry"
	"github.com/heartmarshall/dictnorm/internal/config"
	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/search"
	gql "github.com/heartmarshall/dictnorm/internal/transport/graphql"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/dataloader"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/resolver"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/schema"
)

// headerStore lists entry headers and counts definition batches.
type headerStore struct {
	entries []domain.Entry

	mu      sync.Mutex
	batches [][]uuid.UUID
}

func (s *headerStore) FindByHeadword(_ context.Context, headword, _ string) ([]domain.Entry, error) {
	var out []domain.Entry
	for _, e := range s.entries {
		if e.Headword == headword {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (s *headerStore) ListByHeadword(ctx context.Context, headword, source string) ([]domain.EntryHeader, error) {
	found, err := s.FindByHeadword(ctx, headword, source)
	if err != nil {
		return nil, err
	}
	out := make([]domain.EntryHeader, len(found))
	for i, e := range found {
		out[i] = domain.EntryHeader{ID: e.ID(), Headword: e.Headword, ScriptVariants: e.ScriptVariants, SourceTag: e.SourceTag}
	}
	return out, nil
}

func (s *headerStore) DefinitionsByEntryIDs(_ context.Context, ids []uuid.UUID) ([]entry.DefinitionWithEntryID, error) {
	s.mu.Lock()
	s.batches = append(s.batches, ids)
	s.mu.Unlock()

	var out []entry.DefinitionWithEntryID
	for _, e := range s.entries {
		for _, id := range ids {
			if e.ID() != id {
				continue
			}
			for _, d := range e.Definitions {
				out = append(out, entry.DefinitionWithEntryID{EntryID: id, Definition: d})
			}
		}
	}
	return out, nil
}

type fakeIndex struct{}

func (fakeIndex) Search(q, _ string, _, _ int) (search.Results, error) {
	return search.Results{Total: 1, Hits: []search.Hit{{ID: "q:" + q, Score: 2.5, Entry: domain.Entry{Headword: q, SourceTag: "q"}}}}, nil
}

func (fakeIndex) Homophones(string, string, int, int) (search.Results, error) {
	return search.Results{}, nil
}

func (fakeIndex) Document(id string) (domain.Entry, error) {
	return domain.Entry{}, domain.ErrNotFound
}

func corpus() []domain.Entry {
	return []domain.Entry{
		{Headword: "行", SourceTag: "r", Definitions: []domain.Definition{domain.NewDefinition([]string{"hang"}, []string{"row"})}},
		{Headword: "行", SourceTag: "r", Definitions: []domain.Definition{domain.NewDefinition([]string{"hang"}, []string{"firm"})}},
		{Headword: "天", SourceTag: "q", ScriptVariants: []string{"兲"}, Definitions: []domain.Definition{domain.NewDefinition([]string{"t'ien"}, []string{"heaven", "sky"})}},
	}
}

type response struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func newServer(t *testing.T) (*headerStore, http.Handler) {
	t.Helper()
	store := &headerStore{entries: corpus()}
	log := slog.New(slog.DiscardHandler)
	es := schema.NewExecutableSchema(schema.Config{Resolvers: resolver.NewResolver(log, store, fakeIndex{})})
	h := gql.NewHandler(log, es, config.GraphQLConfig{ComplexityLimit: 200})
	return store, dataloader.Middleware(&dataloader.Repos{Definition: store})(h)
}

func post(t *testing.T, h http.Handler, query string) (string, response) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Body.String(), resp
}

func TestQuery_LookupBatchesDefinitions(t *testing.T) {
	store, h := newServer(t)

	raw, resp := post(t, h, `{
		rows: lookup(headword: "行") { definitions { meanings } headword }
		sky: lookup(headword: "天") { scriptVariants source }
	}`)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `[
		{"definitions": [{"meanings": ["row"]}], "headword": "行"},
		{"definitions": [{"meanings": ["firm"]}], "headword": "行"}
	]`, string(resp.Data["rows"]))
	assert.JSONEq(t, `[{"scriptVariants": ["兲"], "source": "q"}]`, string(resp.Data["sky"]))
	assert.Less(t, strings.Index(raw, `"rows"`), strings.Index(raw, `"sky"`), "fields keep selection order")
	assert.Less(t, strings.Index(raw, `"definitions"`), strings.Index(raw, `"headword"`))

	require.Len(t, store.batches, 1, "definitions of both entries should load in one batch")
	assert.Len(t, store.batches[0], 2)
}

func TestQuery_LookupMissingIsEmpty(t *testing.T) {
	_, h := newServer(t)

	_, resp := post(t, h, `{ lookup(headword: "無") { id } }`)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `[]`, string(resp.Data["lookup"]))
}

func TestQuery_Search(t *testing.T) {
	_, h := newServer(t)

	_, resp := post(t, h, `{ search(query: "天", limit: 2) { total hits { id score entry { headword __typename } } } }`)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"total": 1, "hits": [{"id": "q:天", "score": 2.5, "entry": {"headword": "天", "__typename": "Entry"}}]}`,
		string(resp.Data["search"]))
}

func TestQuery_ErrorCodes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		path  string
		code  string
	}{
		{"validation", `{ search(query: "天", limit: 0) { total } }`, "search", "VALIDATION"},
		{"not found", `{ doc: document(id: "q:無") { id } }`, "doc", "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newServer(t)

			_, resp := post(t, h, tt.query)

			require.Len(t, resp.Errors, 1)
			assert.Equal(t, []any{tt.path}, resp.Errors[0].Path)
			assert.Equal(t, tt.code, resp.Errors[0].Extensions["code"])
			assert.Equal(t, "null", string(resp.Data[tt.path]))
		})
	}
}

func TestQuery_ComplexityLimit(t *testing.T) {
	_, h := newServer(t)

	_, resp := post(t, h, `{ search(query: "天", limit: 100) { total hits { id entry { headword } } } }`)

	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "complexity")
	assert.Nil(t, resp.Data)
}

func TestQuery_UnknownFieldRejected(t *testing.T) {
	_, h := newServer(t)

	_, resp := post(t, h, `{ lookup(headword: "天") { pronunciation } }`)

	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "pronunciation")
}
