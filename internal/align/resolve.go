package align

import (
	"fmt"
	"strings"
)

// Block is the raw text a layout adapter extracts for one headword.
type Block struct {
	Headword string
	Readings []string
	Meanings []string

	// DetectAnnotation enables the "(two words)" multi-group handling.
	// Layouts without such annotations leave it off so a parenthesis in
	// a reading is taken literally.
	DetectAnnotation bool
}

// Resolve turns a block into aligned pairs.
//
// Without annotations the block is a single group. With an annotation on
// the first reading line, the remaining reading lines and all meaning lines
// are grouped on blank lines and aligned to the annotated count.
func Resolve(b Block) ([]Pair, error) {
	readings := nonBlankEdges(b.Readings)

	if !b.DetectAnnotation || !anyParen(readings) {
		rs := nonBlank(readings)
		if len(rs) == 0 {
			return nil, ErrNoReadings
		}
		return []Pair{{Readings: rs, Meanings: nonBlank(b.Meanings)}}, nil
	}

	if !strings.HasPrefix(readings[0], "(") {
		return nil, fmt.Errorf("%w: %q", ErrMixedAnnotation, readings[0])
	}
	if anyParen(readings[1:]) {
		return nil, ErrNestedAnnotation
	}

	expected, err := ResolveGroupCount(readings[0])
	if err != nil {
		return nil, err
	}

	return Align(GroupLines(readings[1:]), GroupLines(b.Meanings), expected)
}

func anyParen(lines []string) bool {
	for _, l := range lines {
		if strings.Contains(l, "(") {
			return true
		}
	}
	return false
}

// nonBlankEdges drops leading and trailing blank lines.
func nonBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
