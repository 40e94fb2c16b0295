package align

import (
	"slices"
	"strings"

	"github.com/heartmarshall/dictnorm/internal/domain"
)

// Assembler builds entries from aligned pairs.
type Assembler struct {
	// SplitSenses splits each meaning line on top-level commas.
	SplitSenses bool
}

// Assemble builds one entry with one definition per pair, in pair order.
// Readings are sorted; meanings keep their source order.
func (a Assembler) Assemble(headword string, variants []string, sourceTag string, pairs []Pair) domain.Entry {
	defs := make([]domain.Definition, len(pairs))
	for i, p := range pairs {
		readings := slices.Clone(p.Readings)
		slices.Sort(readings)
		defs[i] = domain.NewDefinition(readings, a.senses(p.Meanings))
	}

	return domain.Entry{
		Headword:       headword,
		ScriptVariants: variants,
		SourceTag:      sourceTag,
		Definitions:    defs,
	}
}

// senses skips blank meaning lines. Empty segments of a split line, such as
// the one after a trailing comma, are kept.
func (a Assembler) senses(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		if !a.SplitSenses {
			out = append(out, l)
			continue
		}
		out = append(out, SplitTopLevel(l, ',')...)
	}
	return out
}
