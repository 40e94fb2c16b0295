// Package enumerated parses the enumerated layout: one cell listing
// headwords followed by their shared readings, and one cell of meanings
// split into "a.", "b." groups, one group per headword.
package enumerated

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/heartmarshall/dictnorm/internal/align"
	"github.com/heartmarshall/dictnorm/internal/app/importer/layout"
	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/markup"
)

// SourceTag is the default tag of records produced from this layout.
const SourceTag = "q"

const separator = "* * *"

// groupLabel matches an "a." group label and a "1." sense number after it.
var groupLabel = regexp.MustCompile(`^(?:[a-z]\.(?:\s+|$))?(?:\d+\.(?:\s+|$))?`)

// Layout implements layout.Layout for the enumerated dictionary.
type Layout struct {
	tag string
}

// New returns the enumerated layout. An empty tag selects SourceTag.
func New(tag string) Layout {
	if tag == "" {
		tag = SourceTag
	}
	return Layout{tag: tag}
}

func (Layout) Name() string        { return "enumerated" }
func (l Layout) SourceTag() string { return l.tag }
func (Layout) SplitSenses() bool   { return false }

// Extract reads one row and distributes its meaning groups over the listed
// headwords. All headwords share the readings.
func (Layout) Extract(cells []string) (layout.Extraction, error) {
	var ext layout.Extraction

	if err := layout.CheckCells(cells, 2); err != nil {
		return ext, err
	}

	headwords, readings := splitHeadwords(dropBlank(markup.Lines(cells[0])))
	if len(headwords) == 0 {
		ext.Context = cells[0]
		return ext, fmt.Errorf("%w: no headword before readings", layout.ErrMalformedRow)
	}
	ext.Headword = strings.Join(headwords, " ")
	if len(readings) == 0 {
		return ext, align.ErrNoReadings
	}

	groups, ok := align.Reconcile(meaningGroups(markup.Lines(cells[1])), len(headwords))
	if !ok {
		return ext, &align.GroupError{Side: align.SideMeanings, Groups: groups, Expected: len(headwords)}
	}

	ext.Blocks = make([]align.Block, len(headwords))
	for i, hw := range headwords {
		ext.Blocks[i] = align.Block{
			Headword: hw,
			Readings: readings,
			Meanings: groups[i],
		}
	}
	return ext, nil
}

// splitHeadwords splits the first cell at the first line that reads as
// romanization, i.e. starts with a latin letter once diacritics are folded.
func splitHeadwords(lines []string) (headwords, readings []string) {
	for i, l := range lines {
		if isReading(l) {
			return lines[:i], lines[i:]
		}
	}
	return lines, nil
}

func isReading(line string) bool {
	folded := domain.FoldDiacritics(line)
	return folded != "" && folded[0] >= 'a' && folded[0] <= 'z'
}

// meaningGroups groups meaning lines on their "a.", "b." labels. Unlabelled
// meanings form a single group. Sense numbers and labels are stripped.
func meaningGroups(lines []string) [][]string {
	lines = dropBlank(lines)
	if len(lines) == 0 {
		return nil
	}

	if !strings.HasPrefix(lines[0], "a.") {
		return [][]string{layout.StripNumbers(lines)}
	}

	var groups [][]string
	for _, l := range lines {
		next := string(rune('a'+len(groups))) + "."
		if strings.HasPrefix(l, next) {
			groups = append(groups, []string{})
		}
		if l = strings.TrimSpace(groupLabel.ReplaceAllString(l, "")); l != "" {
			groups[len(groups)-1] = append(groups[len(groups)-1], l)
		}
	}
	return groups
}

func dropBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" && l != separator {
			out = append(out, l)
		}
	}
	return out
}
