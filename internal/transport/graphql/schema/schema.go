// Package schema executes GraphQL queries against the dictionary schema.
// It implements graphql.ExecutableSchema over the resolver interfaces below,
// so the gqlgen handler serves it directly. Introspection is not served.
package schema

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/transport/graphql/model"
)

//go:embed schema.graphqls
var sdl string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: sdl})

var errIntrospection = errors.New("introspection is not supported")

// ResolverRoot gives access to the resolvers of every object type with
// resolved fields.
type ResolverRoot interface {
	Query() QueryResolver
	Entry() EntryResolver
}

// QueryResolver resolves the root query fields.
type QueryResolver interface {
	Lookup(ctx context.Context, headword string, source *string) ([]*model.Entry, error)
	Search(ctx context.Context, query string, source *string, limit, offset *int) (*model.SearchResult, error)
	Homophones(ctx context.Context, text string, source *string, limit, offset *int) (*model.SearchResult, error)
	Document(ctx context.Context, id string) (*model.Entry, error)
}

// EntryResolver resolves Entry fields that may need a store round trip.
type EntryResolver interface {
	Definitions(ctx context.Context, obj *model.Entry) ([]domain.Definition, error)
}

// Config configures NewExecutableSchema.
type Config struct {
	Resolvers ResolverRoot
}

// NewExecutableSchema returns the schema bound to cfg.Resolvers.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{resolvers: cfg.Resolvers}
}

type executableSchema struct {
	resolvers ResolverRoot
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

// Complexity charges paged queries per requested hit. Other fields use the
// default of one plus their children.
func (e *executableSchema) Complexity(_ context.Context, typeName, field string, childComplexity int, args map[string]any) (int, bool) {
	if typeName != "Query" || (field != "search" && field != "homophones") {
		return 0, false
	}
	limit, err := graphql.UnmarshalInt(args["limit"])
	if err != nil || limit <= 0 {
		return 0, false
	}
	return 1 + limit*childComplexity, true
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := &executionContext{OperationContext: opCtx, resolvers: e.resolvers}

	if opCtx.Operation.Operation != ast.Query {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation: %s", opCtx.Operation.Operation))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		data := ec.query(ctx, opCtx.Operation.SelectionSet)
		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		return &graphql.Response{Data: buf.Bytes()}
	}
}

type executionContext struct {
	*graphql.OperationContext
	resolvers ResolverRoot
}

// query resolves the root fields concurrently so that loaders behind
// separate fields share batches.
func (ec *executionContext) query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Query"})
	out := newObject(len(fields))

	var wg sync.WaitGroup
	for i, f := range fields {
		out.keys[i] = f.Alias
		if f.Name == "__typename" {
			out.values[i] = graphql.MarshalString("Query")
			continue
		}
		fctx := graphql.WithPathContext(ctx, graphql.NewPathWithField(f.Alias))
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.values[i] = ec.queryField(fctx, f)
		}()
	}
	wg.Wait()

	return out
}

func (ec *executionContext) queryField(ctx context.Context, f graphql.CollectedField) graphql.Marshaler {
	args := f.ArgumentMap(ec.Variables)
	q := ec.resolvers.Query()

	switch f.Name {
	case "lookup":
		headword, err := requiredString(args, "headword")
		if err != nil {
			return fail(ctx, err)
		}
		source, err := optionalString(args, "source")
		if err != nil {
			return fail(ctx, err)
		}
		entries, err := q.Lookup(ctx, headword, source)
		if err != nil {
			return fail(ctx, err)
		}
		if entries == nil {
			return graphql.Null
		}
		return ec.entries(ctx, f.Selections, entries)

	case "search", "homophones":
		textArg := "query"
		if f.Name == "homophones" {
			textArg = "text"
		}
		text, err := requiredString(args, textArg)
		if err != nil {
			return fail(ctx, err)
		}
		source, err := optionalString(args, "source")
		if err != nil {
			return fail(ctx, err)
		}
		limit, err := optionalInt(args, "limit")
		if err != nil {
			return fail(ctx, err)
		}
		offset, err := optionalInt(args, "offset")
		if err != nil {
			return fail(ctx, err)
		}

		var res *model.SearchResult
		if f.Name == "search" {
			res, err = q.Search(ctx, text, source, limit, offset)
		} else {
			res, err = q.Homophones(ctx, text, source, limit, offset)
		}
		if err != nil {
			return fail(ctx, err)
		}
		return ec.searchResult(ctx, f.Selections, res)

	case "document":
		v, ok := args["id"]
		if !ok || v == nil {
			return fail(ctx, errors.New("argument id is required"))
		}
		id, err := graphql.UnmarshalID(v)
		if err != nil {
			return fail(ctx, fmt.Errorf("argument id: %w", err))
		}
		e, err := q.Document(ctx, id)
		if err != nil {
			return fail(ctx, err)
		}
		return ec.entry(ctx, f.Selections, e)

	case "__schema", "__type":
		return fail(ctx, errIntrospection)
	}

	return fail(ctx, fmt.Errorf("unknown field Query.%s", f.Name))
}

func (ec *executionContext) entries(ctx context.Context, sel ast.SelectionSet, list []*model.Entry) graphql.Marshaler {
	out := make(graphql.Array, len(list))
	each(ctx, len(list), func(ctx context.Context, i int) {
		out[i] = ec.entry(ctx, sel, list[i])
	})
	return out
}

func (ec *executionContext) entry(ctx context.Context, sel ast.SelectionSet, obj *model.Entry) graphql.Marshaler {
	if obj == nil {
		return graphql.Null
	}

	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Entry"})
	out := newObject(len(fields))
	for i, f := range fields {
		out.keys[i] = f.Alias
		switch f.Name {
		case "__typename":
			out.values[i] = graphql.MarshalString("Entry")
		case "id":
			out.values[i] = graphql.MarshalID(obj.ID.String())
		case "source":
			out.values[i] = graphql.MarshalString(obj.Source)
		case "headword":
			out.values[i] = graphql.MarshalString(obj.Headword)
		case "scriptVariants":
			out.values[i] = marshalStrings(obj.ScriptVariants)
		case "definitions":
			fctx := graphql.WithPathContext(ctx, graphql.NewPathWithField(f.Alias))
			defs, err := ec.resolvers.Entry().Definitions(fctx, obj)
			if err != nil {
				out.values[i] = fail(fctx, err)
				continue
			}
			out.values[i] = ec.definitions(f.Selections, defs)
		}
	}
	return out
}

func (ec *executionContext) definitions(sel ast.SelectionSet, defs []domain.Definition) graphql.Marshaler {
	if defs == nil {
		return graphql.Null
	}

	out := make(graphql.Array, len(defs))
	for i, d := range defs {
		fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Definition"})
		obj := newObject(len(fields))
		for j, f := range fields {
			obj.keys[j] = f.Alias
			switch f.Name {
			case "__typename":
				obj.values[j] = graphql.MarshalString("Definition")
			case "readings":
				obj.values[j] = marshalStrings(d.Readings)
			case "readingsPlain":
				obj.values[j] = marshalStrings(d.ReadingsPlain)
			case "meanings":
				obj.values[j] = marshalStrings(d.Meanings)
			}
		}
		out[i] = obj
	}
	return out
}

func (ec *executionContext) searchResult(ctx context.Context, sel ast.SelectionSet, res *model.SearchResult) graphql.Marshaler {
	if res == nil {
		return graphql.Null
	}

	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"SearchResult"})
	out := newObject(len(fields))
	for i, f := range fields {
		out.keys[i] = f.Alias
		switch f.Name {
		case "__typename":
			out.values[i] = graphql.MarshalString("SearchResult")
		case "total":
			out.values[i] = graphql.MarshalInt(res.Total)
		case "hits":
			fctx := graphql.WithPathContext(ctx, graphql.NewPathWithField(f.Alias))
			hits := make(graphql.Array, len(res.Hits))
			each(fctx, len(res.Hits), func(ctx context.Context, j int) {
				hits[j] = ec.searchHit(ctx, f.Selections, res.Hits[j])
			})
			out.values[i] = hits
		}
	}
	return out
}

func (ec *executionContext) searchHit(ctx context.Context, sel ast.SelectionSet, hit *model.SearchHit) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"SearchHit"})
	out := newObject(len(fields))
	for i, f := range fields {
		out.keys[i] = f.Alias
		switch f.Name {
		case "__typename":
			out.values[i] = graphql.MarshalString("SearchHit")
		case "id":
			out.values[i] = graphql.MarshalID(hit.ID)
		case "score":
			out.values[i] = graphql.MarshalFloat(hit.Score)
		case "entry":
			fctx := graphql.WithPathContext(ctx, graphql.NewPathWithField(f.Alias))
			out.values[i] = ec.entry(fctx, f.Selections, hit.Entry)
		}
	}
	return out
}

// each calls fn for every list index with the index on the path. Elements
// run concurrently so that their field loaders batch together.
func each(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if n == 1 {
		fn(graphql.WithPathContext(ctx, graphql.NewPathWithIndex(0)), 0)
		return
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			fn(graphql.WithPathContext(ctx, graphql.NewPathWithIndex(i)), i)
		}()
	}
	wg.Wait()
}

func fail(ctx context.Context, err error) graphql.Marshaler {
	graphql.AddError(ctx, err)
	return graphql.Null
}

func marshalStrings(s []string) graphql.Marshaler {
	out := make(graphql.Array, len(s))
	for i, v := range s {
		out[i] = graphql.MarshalString(v)
	}
	return out
}

// object writes its fields in selection order.
type object struct {
	keys   []string
	values []graphql.Marshaler
}

func newObject(n int) *object {
	return &object{keys: make([]string, n), values: make([]graphql.Marshaler, n)}
}

func (o *object) MarshalGQL(w io.Writer) {
	_, _ = io.WriteString(w, "{")
	for i, k := range o.keys {
		if i > 0 {
			_, _ = io.WriteString(w, ",")
		}
		graphql.MarshalString(k).MarshalGQL(w)
		_, _ = io.WriteString(w, ":")
		v := o.values[i]
		if v == nil {
			v = graphql.Null
		}
		v.MarshalGQL(w)
	}
	_, _ = io.WriteString(w, "}")
}

func optionalString(args map[string]any, name string) (*string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	s, err := graphql.UnmarshalString(v)
	if err != nil {
		return nil, fmt.Errorf("argument %s: %w", name, err)
	}
	return &s, nil
}

func requiredString(args map[string]any, name string) (string, error) {
	s, err := optionalString(args, name)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("argument %s is required", name)
	}
	return *s, nil
}

func optionalInt(args map[string]any, name string) (*int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := graphql.UnmarshalInt(v)
	if err != nil {
		return nil, fmt.Errorf("argument %s: %w", name, err)
	}
	return &n, nil
}
