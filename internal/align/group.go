package align

import "strings"

// GroupLines partitions lines into runs of non-blank lines separated by blank
// lines. Repeated, leading and trailing blank lines never produce empty
// groups; all-blank input yields no groups.
func GroupLines(lines []string) [][]string {
	var (
		groups [][]string
		cur    []string
	)

	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if len(cur) > 0 {
				groups = append(groups, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}

	return groups
}

// Flatten concatenates groups in order.
func Flatten(groups [][]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
