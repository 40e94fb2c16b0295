// Package general parses the general dictionary layout: a headword cell and
// a cell holding readings and meanings separated by one <hr>.
// Pure function: raw cells in, headword blocks out.
package general

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/dictnorm/internal/align"
	"github.com/heartmarshall/dictnorm/internal/app/importer/layout"
	"github.com/heartmarshall/dictnorm/internal/markup"
)

// SourceTag is the default tag of records produced from this layout.
const SourceTag = "c"

// Layout implements layout.Layout for the general dictionary.
type Layout struct {
	tag string
}

// New returns the general layout. An empty tag selects SourceTag.
func New(tag string) Layout {
	if tag == "" {
		tag = SourceTag
	}
	return Layout{tag: tag}
}

func (Layout) Name() string        { return "general" }
func (l Layout) SourceTag() string { return l.tag }
func (Layout) SplitSenses() bool   { return true }

// Extract reads one row. Colored spans in the readings half are marked with
// a leading "*" so alternate readings stay recognizable after markup is
// stripped.
func (Layout) Extract(cells []string) (layout.Extraction, error) {
	var ext layout.Extraction

	if err := layout.CheckCells(cells, 2); err != nil {
		return ext, err
	}
	ext.Headword = strings.TrimSpace(markup.ToText(cells[0]))

	halves := layout.SplitRule(cells[1])
	if len(halves) != 2 {
		ext.Context = cells[1]
		return ext, fmt.Errorf("%w: %d <hr> separators, want 1", layout.ErrMalformedRow, len(halves)-1)
	}

	readings := markup.Lines(strings.ReplaceAll(halves[0], "<font", "*<font"))
	meanings := markup.Lines(halves[1])

	if utf8.RuneCountInString(ext.Headword) > 1 {
		ext.Warnings = append(ext.Warnings, "multi-character headword")
	}

	ext.Blocks = []align.Block{{
		Headword:         ext.Headword,
		Readings:         readings,
		Meanings:         meanings,
		DetectAnnotation: true,
	}}
	return ext, nil
}
