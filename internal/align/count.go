package align

import (
	"fmt"
	"strings"
)

// annotationCounts is the closed vocabulary of group-count annotations.
// Anything outside it needs a human to look at the source.
var annotationCounts = map[string]int{
	"two words":           2,
	"two different words": 2,
	"three words":         3,
	"3 words":             3,
	"four words":          4,
	"five words":          5,
}

// ResolveGroupCount maps an annotation line such as "(two words)" to the
// number of reading/meaning groups that follow it. The whole line must be
// one of the parenthesized forms, compared case-insensitively.
func ResolveGroupCount(annotation string) (int, error) {
	line := strings.ToLower(strings.TrimSpace(annotation))

	if inner, ok := parenthesized(line); ok {
		if n, ok := annotationCounts[inner]; ok {
			return n, nil
		}
	}
	if strings.Contains(line, "both") {
		return 1, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownAnnotation, annotation)
}

func parenthesized(line string) (string, bool) {
	if len(line) < 2 || line[0] != '(' || line[len(line)-1] != ')' {
		return "", false
	}
	return line[1 : len(line)-1], true
}
