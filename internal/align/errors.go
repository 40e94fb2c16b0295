package align

import (
	"errors"
	"fmt"
)

// Row-level failure classes. All of them skip the row except ErrSideMismatch,
// which means the reconciliation policy itself produced inconsistent output.
var (
	ErrUnknownAnnotation = errors.New("unsupported annotation")
	ErrNestedAnnotation  = errors.New("ambiguous nested annotation")
	ErrMixedAnnotation   = errors.New("annotation not on first reading line")
	ErrNoReadings        = errors.New("no readings")
	ErrUnresolvedGroups  = errors.New("unresolved group count")
	ErrSideMismatch      = errors.New("reading and meaning group counts disagree")
)

// Side names which half of a row a group error refers to.
type Side string

const (
	SideReadings Side = "reading"
	SideMeanings Side = "meaning"
)

// GroupError reports a side whose groups could not be brought to the
// expected count.
type GroupError struct {
	Side     Side
	Groups   [][]string
	Expected int
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("%d expected %s groups, got %d", e.Expected, e.Side, len(e.Groups))
}

func (e *GroupError) Unwrap() error { return ErrUnresolvedGroups }

// FormatGroups renders groups for diagnostics, e.g. [["a" "b"] ["c"]].
func FormatGroups(groups [][]string) string {
	return fmt.Sprintf("%q", groups)
}
