package importer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/heartmarshall/dictnorm/internal/app/importer/enumerated"
	"github.com/heartmarshall/dictnorm/internal/app/importer/general"
	"github.com/heartmarshall/dictnorm/internal/app/importer/inline"
	"github.com/heartmarshall/dictnorm/internal/app/importer/layout"
)

var layouts = map[string]func(tag string) layout.Layout{
	"general":    func(tag string) layout.Layout { return general.New(tag) },
	"enumerated": func(tag string) layout.Layout { return enumerated.New(tag) },
	"inline":     func(tag string) layout.Layout { return inline.New(tag) },
}

// LayoutNames lists the registered layouts in sorted order.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewLayout returns the named layout. An empty sourceTag keeps the layout's
// default tag.
func NewLayout(name, sourceTag string) (layout.Layout, error) {
	ctor, ok := layouts[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (want one of %s)", name, strings.Join(LayoutNames(), ", "))
	}
	return ctor(sourceTag), nil
}
