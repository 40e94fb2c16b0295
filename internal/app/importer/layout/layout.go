// Package layout defines the contract shared by the per-source row adapters.
// Adapters are pure: raw table cells in, headword blocks out.
package layout

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/heartmarshall/dictnorm/internal/align"
)

// ErrMalformedRow is returned when a row does not have the shape its layout
// expects (cell count, missing separator).
var ErrMalformedRow = errors.New("malformed row")

// Extraction is what an adapter pulls out of one row.
type Extraction struct {
	// Headword names the row in diagnostics. It is set whenever the adapter
	// got far enough to read it, including on error.
	Headword string
	Blocks   []align.Block
	// Warnings are oddities that do not drop the row.
	Warnings []string
	// Context is attached to diagnostics raised for the row as a whole.
	Context string
}

// Layout extracts headword blocks from the cells of one raw row.
type Layout interface {
	Name() string
	SourceTag() string
	// SplitSenses reports whether meaning lines hold several
	// comma-separated senses.
	SplitSenses() bool
	Extract(cells []string) (Extraction, error)
}

// CheckCells fails with ErrMalformedRow unless cells has exactly n entries.
func CheckCells(cells []string, n int) error {
	if len(cells) != n {
		return fmt.Errorf("%w: %d cells, want %d", ErrMalformedRow, len(cells), n)
	}
	return nil
}

var numberLabel = regexp.MustCompile(`^\d+\.\s+`)

// StripNumber removes a leading "12. " enumeration label.
func StripNumber(line string) string {
	return numberLabel.ReplaceAllString(line, "")
}

// StripNumbers applies StripNumber to every line, in place.
func StripNumbers(lines []string) []string {
	for i, l := range lines {
		lines[i] = StripNumber(l)
	}
	return lines
}

var (
	brTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTag = regexp.MustCompile(`(?i)<hr\s*/?>`)
)

// SplitBreak splits s around its first <br>, in any spelling.
func SplitBreak(s string) []string {
	return brTag.Split(s, 2)
}

// SplitRule splits s around every <hr>, in any spelling.
func SplitRule(s string) []string {
	return hrTag.Split(s, -1)
}

// RemoveRules deletes every <hr> from s.
func RemoveRules(s string) string {
	return hrTag.ReplaceAllString(s, "")
}
