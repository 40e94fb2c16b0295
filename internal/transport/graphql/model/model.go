// Package model holds the types served by the GraphQL schema.
package model

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/search"
)

// Entry is a dictionary record as served over GraphQL.
type Entry struct {
	ID             uuid.UUID
	Headword       string
	ScriptVariants []string
	Source         string
	// Definitions is nil when the definitions are loaded on demand by ID.
	Definitions []domain.Definition
}

// SearchHit is one ranked match of a search.
type SearchHit struct {
	ID    string
	Score float64
	Entry *Entry
}

// SearchResult is one page of hits plus the total match count.
type SearchResult struct {
	Total int
	Hits  []*SearchHit
}

// EntryFromDomain converts a complete record.
func EntryFromDomain(e domain.Entry) *Entry {
	defs := e.Definitions
	if defs == nil {
		defs = []domain.Definition{}
	}
	return &Entry{
		ID:             e.ID(),
		Headword:       e.Headword,
		ScriptVariants: nonNil(e.ScriptVariants),
		Source:         e.SourceTag,
		Definitions:    defs,
	}
}

// EntryFromHeader converts a stored entry whose definitions are not loaded.
func EntryFromHeader(h domain.EntryHeader) *Entry {
	return &Entry{
		ID:             h.ID,
		Headword:       h.Headword,
		ScriptVariants: nonNil(h.ScriptVariants),
		Source:         h.SourceTag,
	}
}

// SearchResultFromIndex converts one page of index hits.
func SearchResultFromIndex(r search.Results) *SearchResult {
	out := &SearchResult{Total: int(r.Total), Hits: make([]*SearchHit, len(r.Hits))}
	for i, h := range r.Hits {
		out.Hits[i] = &SearchHit{ID: h.ID, Score: h.Score, Entry: EntryFromDomain(h.Entry)}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
