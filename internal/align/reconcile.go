package align

import (
	"fmt"
	"slices"
)

// Pair is one aligned reading group with its meaning group.
type Pair struct {
	Readings []string
	Meanings []string
}

// Reconcile brings groups to exactly expected groups. The rules run in order:
//
//  1. expected == 1: all groups are merged into one.
//  2. the total line count equals expected: every line becomes its own group.
//  3. a single one-line group is repeated expected times.
//
// ok is false when the result still does not have expected groups.
func Reconcile(groups [][]string, expected int) (resolved [][]string, ok bool) {
	resolved = groups

	if expected == 1 {
		resolved = [][]string{Flatten(resolved)}
	}

	lines := Flatten(resolved)
	if len(lines) == expected {
		resolved = make([][]string, len(lines))
		for i, l := range lines {
			resolved[i] = []string{l}
		}
	}

	if len(resolved) == 1 && len(resolved[0]) == 1 {
		only := resolved[0][0]
		resolved = make([][]string, expected)
		for i := range resolved {
			resolved[i] = []string{only}
		}
	}

	return resolved, len(resolved) == expected
}

// Align reconciles both sides independently and pairs them positionally.
func Align(readingGroups, meaningGroups [][]string, expected int) ([]Pair, error) {
	readings, ok := Reconcile(readingGroups, expected)
	if !ok || slices.ContainsFunc(readings, isEmpty) {
		return nil, &GroupError{Side: SideReadings, Groups: readings, Expected: expected}
	}

	meanings, ok := Reconcile(meaningGroups, expected)
	if !ok {
		return nil, &GroupError{Side: SideMeanings, Groups: meanings, Expected: expected}
	}

	if len(readings) != len(meanings) {
		return nil, fmt.Errorf("%w: %d reading groups, %d meaning groups", ErrSideMismatch, len(readings), len(meanings))
	}

	pairs := make([]Pair, len(readings))
	for i := range readings {
		pairs[i] = Pair{Readings: readings[i], Meanings: meanings[i]}
	}
	return pairs, nil
}

func isEmpty(g []string) bool { return len(g) == 0 }
