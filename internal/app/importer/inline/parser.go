// Package inline parses the inline layout: "headword<br>reading" in the
// first cell and numbered meanings in the second.
package inline

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/dictnorm/internal/align"
	"github.com/heartmarshall/dictnorm/internal/app/importer/layout"
	"github.com/heartmarshall/dictnorm/internal/markup"
)

// SourceTag is the default tag of records produced from this layout.
const SourceTag = "r"

type Layout struct {
	tag string
}

// New returns the inline layout. An empty tag selects SourceTag.
func New(tag string) Layout {
	if tag == "" {
		tag = SourceTag
	}
	return Layout{tag: tag}
}

func (Layout) Name() string        { return "inline" }
func (l Layout) SourceTag() string { return l.tag }
func (Layout) SplitSenses() bool   { return false }

func (Layout) Extract(cells []string) (layout.Extraction, error) {
	var ext layout.Extraction

	if err := layout.CheckCells(cells, 2); err != nil {
		return ext, err
	}

	parts := layout.SplitBreak(cells[0])
	ext.Headword = strings.TrimSpace(markup.ToText(parts[0]))
	if len(parts) != 2 {
		ext.Context = cells[0]
		return ext, fmt.Errorf("%w: no <br> between headword and reading", layout.ErrMalformedRow)
	}

	meanings := markup.Lines(layout.RemoveRules(cells[1]))

	ext.Blocks = []align.Block{{
		Headword: ext.Headword,
		Readings: markup.Lines(parts[1]),
		Meanings: layout.StripNumbers(meanings),
	}}
	return ext, nil
}
