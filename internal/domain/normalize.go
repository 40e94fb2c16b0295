package domain

import (
	"strings"
)

// diacriticsReplacer maps marked reading characters to their ASCII spelling.
var diacriticsReplacer = strings.NewReplacer(
	"á", "aa",
	"ó", "o",
	"ú", "oo",
	"ü", "ui",
	"û", "u",
	"ö", "oe",
	"'", "h",
)

// FoldDiacritics returns the ASCII-only variant of a reading. Only the fixed
// substitution table is applied; case, spacing and tone numerals are kept.
func FoldDiacritics(reading string) string {
	return diacriticsReplacer.Replace(reading)
}

// NormalizeQuery prepares user input for lookup:
//   - trims leading/trailing whitespace
//   - compresses whitespace runs (including ideographic spaces) into one space
//
// Case is preserved; readings are case-sensitive in the index.
func NormalizeQuery(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
