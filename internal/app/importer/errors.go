package importer

import "fmt"

// AbortError stops a run. It is returned when reading and meaning groups
// came out of reconciliation with different counts, which means the
// alignment policy does not hold for the row and any record built from it
// would pair the wrong groups.
type AbortError struct {
	Row      int
	Headword string
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("import aborted at row %d (%s): %v", e.Row, e.Headword, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }
