package domain

import (
	"strings"

	"github.com/google/uuid"
)

// entryNamespace scopes the name-based ids derived for stored records.
var entryNamespace = uuid.MustParse("6f1c2b7e-3a55-4c1e-9d7b-52e0c3f4a8d1")

// Entry is one normalized headword record. It is built once by the importer
// and never mutated afterwards.
type Entry struct {
	Headword       string       `json:"headword"`
	ScriptVariants []string     `json:"scriptVariants"`
	SourceTag      string       `json:"sourceTag"`
	Definitions    []Definition `json:"definitions"`
}

// EntryHeader is a stored entry without its definitions.
type EntryHeader struct {
	ID             uuid.UUID
	Headword       string
	ScriptVariants []string
	SourceTag      string
}

// Definition is one reading/meaning grouping of a headword.
// ReadingsPlain is derived elementwise from Readings by FoldDiacritics.
type Definition struct {
	Readings      []string `json:"readings"`
	ReadingsPlain []string `json:"readingsPlain"`
	Meanings      []string `json:"meanings"`
}

// NewDefinition builds a Definition and derives its plain readings.
func NewDefinition(readings, meanings []string) Definition {
	plain := make([]string, len(readings))
	for i, r := range readings {
		plain[i] = FoldDiacritics(r)
	}
	if meanings == nil {
		meanings = []string{}
	}
	return Definition{
		Readings:      readings,
		ReadingsPlain: plain,
		Meanings:      meanings,
	}
}

// Validate checks the structural invariants of an entry.
func (e Entry) Validate() error {
	var errs []FieldError

	if strings.TrimSpace(e.Headword) == "" {
		errs = append(errs, FieldError{Field: "headword", Message: "required"})
	}
	if e.SourceTag == "" {
		errs = append(errs, FieldError{Field: "sourceTag", Message: "required"})
	}
	if len(e.Definitions) == 0 {
		errs = append(errs, FieldError{Field: "definitions", Message: "at least one required"})
	}
	for _, d := range e.Definitions {
		if len(d.Readings) == 0 {
			errs = append(errs, FieldError{Field: "definitions.readings", Message: "at least one required"})
		}
		if len(d.ReadingsPlain) != len(d.Readings) {
			errs = append(errs, FieldError{Field: "definitions.readingsPlain", Message: "length must match readings"})
		}
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// DocumentID returns the "source:headword" key used by the search index.
func (e Entry) DocumentID() string {
	return e.SourceTag + ":" + e.Headword
}

// ID returns a name-based id derived from the whole record: source tag,
// headword and every definition in order with its readings and meanings.
// Re-deriving the same record yields the same id. Records that differ in
// any definition get distinct ids.
func (e Entry) ID() uuid.UUID {
	var b strings.Builder
	b.WriteString(e.SourceTag)
	b.WriteByte(0)
	b.WriteString(e.Headword)
	for _, d := range e.Definitions {
		b.WriteByte(0)
		b.WriteString(strings.Join(d.Readings, "\x1f"))
		b.WriteByte('\x1e')
		b.WriteString(strings.Join(d.Meanings, "\x1f"))
	}
	return uuid.NewSHA1(entryNamespace, []byte(b.String()))
}

// DefinitionID returns the id of the definition at position pos of the entry.
func DefinitionID(entryID uuid.UUID, pos int) uuid.UUID {
	return uuid.NewSHA1(entryID, []byte{byte(pos >> 8), byte(pos)})
}
