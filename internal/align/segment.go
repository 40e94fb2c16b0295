package align

import "strings"

// SplitTopLevel splits s on sep, ignoring separators nested inside
// parentheses. Parts are trimmed. Unbalanced parentheses are tolerated:
// depth is a plain counter and may go negative. Only separators at depth
// zero split, so after a stray ")" the rest of s stays one part.
func SplitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		cur   strings.Builder
		depth int
	)

	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}

	return append(parts, strings.TrimSpace(cur.String()))
}
