package search

import (
	"encoding/json"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/heartmarshall/dictnorm/internal/domain"
)

// maxCharacterHits bounds the entries consulted for one character's readings.
const maxCharacterHits = 100

// exactBoost lifts entries whose headword or script variant is the query
// itself above partial matches.
const exactBoost = 10

// Hit is one matching entry.
type Hit struct {
	ID    string
	Score float64
	Entry domain.Entry
}

// Results is one page of hits plus the total match count.
type Results struct {
	Total uint64
	Hits  []Hit
}

// Search matches q as a phrase against headwords, script variants, readings
// (with and without diacritics) and meanings. Entries whose headword or
// script variant equals q rank first. An empty source matches every source.
func (ix *Index) Search(q, source string, limit, offset int) (Results, error) {
	q = domain.NormalizeQuery(q)
	if q == "" {
		return Results{}, nil
	}

	fields := []string{FieldMeanings, FieldReadings, FieldReadingsPlain, FieldHeadword, FieldVariants}
	matches := make([]query.Query, 0, len(fields)+2)
	for _, f := range fields {
		m := bleve.NewMatchPhraseQuery(q)
		m.SetField(f)
		matches = append(matches, m)
	}
	for _, f := range []string{fieldHeadwordExact, fieldVariantsExact} {
		t := bleve.NewTermQuery(q)
		t.SetField(f)
		t.SetBoost(exactBoost)
		matches = append(matches, t)
	}

	return ix.run(withSource(bleve.NewDisjunctionQuery(matches...), source), limit, offset)
}

// Homophones finds entries that can be read like q: for every character of
// q, an entry must carry one of the readings that character has anywhere in
// the index. Returns no hits when some character is not indexed.
func (ix *Index) Homophones(q, source string, limit, offset int) (Results, error) {
	q = domain.NormalizeQuery(q)
	if q == "" {
		return Results{}, nil
	}

	var perChar []query.Query
	for _, c := range q {
		if c == ' ' {
			continue
		}
		readings, err := ix.characterReadings(string(c))
		if err != nil {
			return Results{}, err
		}
		if len(readings) == 0 {
			return Results{}, nil
		}

		alts := make([]query.Query, len(readings))
		for i, r := range readings {
			m := bleve.NewMatchPhraseQuery(r)
			m.SetField(FieldReadings)
			alts[i] = m
		}
		perChar = append(perChar, bleve.NewDisjunctionQuery(alts...))
	}

	return ix.run(withSource(bleve.NewConjunctionQuery(perChar...), source), limit, offset)
}

// characterReadings returns the distinct readings of the entries whose
// headword is exactly c, in index order.
func (ix *Index) characterReadings(c string) ([]string, error) {
	tq := bleve.NewTermQuery(c)
	tq.SetField(fieldHeadwordExact)

	req := bleve.NewSearchRequestOptions(tq, maxCharacterHits, 0, false)
	req.Fields = []string{fieldRecord}
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search readings of %q: %w", c, err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, h := range res.Hits {
		e, err := decodeRecord(h.Fields[fieldRecord])
		if err != nil {
			return nil, err
		}
		for _, d := range e.Definitions {
			for _, r := range d.Readings {
				if !seen[r] {
					seen[r] = true
					out = append(out, r)
				}
			}
		}
	}
	return out, nil
}

func withSource(q query.Query, source string) query.Query {
	if source == "" {
		return q
	}
	sq := bleve.NewTermQuery(source)
	sq.SetField(FieldSource)
	return bleve.NewConjunctionQuery(q, sq)
}

func (ix *Index) run(q query.Query, limit, offset int) (Results, error) {
	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequestOptions(q, limit, offset, false)
	req.Fields = []string{fieldRecord}

	res, err := ix.idx.Search(req)
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}

	out := Results{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		e, err := decodeRecord(h.Fields[fieldRecord])
		if err != nil {
			return Results{}, fmt.Errorf("hit %s: %w", h.ID, err)
		}
		out.Hits = append(out.Hits, Hit{ID: h.ID, Score: h.Score, Entry: e})
	}
	return out, nil
}

// Document returns the stored entry with the given id.
func (ix *Index) Document(id string) (domain.Entry, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Fields = []string{fieldRecord}

	res, err := ix.idx.Search(req)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return domain.Entry{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return decodeRecord(res.Hits[0].Fields[fieldRecord])
}

func decodeRecord(v any) (domain.Entry, error) {
	s, ok := v.(string)
	if !ok {
		return domain.Entry{}, fmt.Errorf("stored record has type %T", v)
	}
	var e domain.Entry
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return domain.Entry{}, fmt.Errorf("decode stored record: %w", err)
	}
	return e, nil
}
