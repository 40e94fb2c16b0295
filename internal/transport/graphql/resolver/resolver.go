// Package resolver implements the GraphQL query resolvers over the record
// stores and the search index.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/search"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/dataloader"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/model"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/schema"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

// entryFinder returns complete entries.
type entryFinder interface {
	FindByHeadword(ctx context.Context, headword, source string) ([]domain.Entry, error)
}

// headerLister returns entries without definitions. Stores that implement
// it get their definitions loaded in batches per request.
type headerLister interface {
	ListByHeadword(ctx context.Context, headword, source string) ([]domain.EntryHeader, error)
}

type searchIndex interface {
	Search(q, source string, limit, offset int) (search.Results, error)
	Homophones(q, source string, limit, offset int) (search.Results, error)
	Document(id string) (domain.Entry, error)
}

// Resolver is the root resolver.
type Resolver struct {
	entries entryFinder
	headers headerLister
	index   searchIndex
	log     *slog.Logger
}

// NewResolver creates the root resolver. index may be nil, in which case
// the search fields report domain.ErrUnavailable.
func NewResolver(log *slog.Logger, entries entryFinder, index searchIndex) *Resolver {
	r := &Resolver{
		entries: entries,
		index:   index,
		log:     log.With("component", "graphql"),
	}
	if h, ok := entries.(headerLister); ok {
		r.headers = h
	}
	return r
}

func (r *Resolver) Query() schema.QueryResolver { return &queryResolver{r} }
func (r *Resolver) Entry() schema.EntryResolver { return &entryResolver{r} }

type queryResolver struct{ *Resolver }

type entryResolver struct{ *Resolver }

// Lookup returns an empty list when nothing matches.
func (r *queryResolver) Lookup(ctx context.Context, headword string, source *string) ([]*model.Entry, error) {
	if strings.TrimSpace(headword) == "" {
		return nil, domain.NewValidationError("headword", "required")
	}
	src := deref(source)

	if r.headers != nil {
		headers, err := r.headers.ListByHeadword(ctx, headword, src)
		if errors.Is(err, domain.ErrNotFound) {
			return []*model.Entry{}, nil
		}
		if err != nil {
			return nil, err
		}
		out := make([]*model.Entry, len(headers))
		for i, h := range headers {
			out[i] = model.EntryFromHeader(h)
		}
		return out, nil
	}

	entries, err := r.entries.FindByHeadword(ctx, headword, src)
	if errors.Is(err, domain.ErrNotFound) {
		return []*model.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]*model.Entry, len(entries))
	for i, e := range entries {
		out[i] = model.EntryFromDomain(e)
	}
	return out, nil
}

func (r *queryResolver) Search(ctx context.Context, query string, source *string, limit, offset *int) (*model.SearchResult, error) {
	if r.index == nil {
		return nil, fmt.Errorf("search index: %w", domain.ErrUnavailable)
	}
	l, o, err := page(limit, offset)
	if err != nil {
		return nil, err
	}

	res, err := r.index.Search(query, deref(source), l, o)
	if err != nil {
		return nil, err
	}
	return model.SearchResultFromIndex(res), nil
}

func (r *queryResolver) Homophones(ctx context.Context, text string, source *string, limit, offset *int) (*model.SearchResult, error) {
	if r.index == nil {
		return nil, fmt.Errorf("search index: %w", domain.ErrUnavailable)
	}
	l, o, err := page(limit, offset)
	if err != nil {
		return nil, err
	}

	res, err := r.index.Homophones(text, deref(source), l, o)
	if err != nil {
		return nil, err
	}
	return model.SearchResultFromIndex(res), nil
}

func (r *queryResolver) Document(ctx context.Context, id string) (*model.Entry, error) {
	if r.index == nil {
		return nil, fmt.Errorf("search index: %w", domain.ErrUnavailable)
	}
	e, err := r.index.Document(id)
	if err != nil {
		return nil, err
	}
	return model.EntryFromDomain(e), nil
}

// Definitions returns the definitions carried by obj, or loads them through
// the request's loaders when obj came from a header listing.
func (r *entryResolver) Definitions(ctx context.Context, obj *model.Entry) ([]domain.Definition, error) {
	if obj.Definitions != nil {
		return obj.Definitions, nil
	}
	loaders := dataloader.FromContext(ctx)
	if loaders == nil {
		r.log.ErrorContext(ctx, "definitions requested without loaders", slog.String("entry_id", obj.ID.String()))
		return nil, fmt.Errorf("definitions of %s: loaders: %w", obj.ID, domain.ErrUnavailable)
	}
	return loaders.DefinitionsByEntryID.Load(ctx, obj.ID)()
}

func page(limit, offset *int) (int, int, error) {
	l, o := defaultLimit, 0
	if limit != nil {
		l = *limit
	}
	if offset != nil {
		o = *offset
	}

	var errs []domain.FieldError
	if l < 1 || l > maxLimit {
		errs = append(errs, domain.FieldError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxLimit)})
	}
	if o < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return 0, 0, domain.NewValidationErrors(errs)
	}
	return l, o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
