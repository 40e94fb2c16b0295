package domain

import (
	"fmt"
	"strings"
)

// Severity tags a diagnostic record.
type Severity string

const (
	// SeveritySkipped marks a recognized shape the importer does not resolve.
	SeveritySkipped Severity = "SKIPPED"
	// SeverityUnknown marks a group count that could not be reconciled.
	SeverityUnknown Severity = "UNKNOWN"
	// SeverityWeird marks an oddity worth a look; the entry is still produced.
	SeverityWeird Severity = "WEIRD"
)

// Diagnostic describes one row that was skipped or looked suspicious, with
// enough context to fix the source by hand.
type Diagnostic struct {
	Severity Severity
	Row      int
	Headword string
	Reason   string
	Context  string
}

// Skips reports whether the diagnostic dropped the row.
func (d Diagnostic) Skips() bool {
	return d.Severity != SeverityWeird
}

// String renders the diagnostic as a single tab-separated line.
func (d Diagnostic) String() string {
	ctx := strings.ReplaceAll(d.Context, "\n", `\n`)
	return fmt.Sprintf("%s\t%d\t%s\t%s\t%s", d.Severity, d.Row, d.Headword, d.Reason, ctx)
}
