// Package search maintains a bleve full-text index over normalized entries.
package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document field paths.
const (
	FieldHeadword      = "headword"
	FieldVariants      = "scriptVariants"
	FieldSource        = "source"
	FieldReadings      = "definitions.readings"
	FieldReadingsPlain = "definitions.readingsPlain"
	FieldMeanings      = "definitions.meanings"
	fieldRecord        = "record"

	// Untokenized copies of headword and variants for exact matching.
	fieldHeadwordExact = "headwordExact"
	fieldVariantsExact = "scriptVariantsExact"
)

const (
	analyzerUnicode    = "unicode_tokenize"
	analyzerWhitespace = "whitespace_tokenize"
	analyzerSingle     = "single_tokenize"
	analyzerMeaning    = "en_nostop"
)

// NewMapping builds the index mapping. Headwords split into one token per
// ideograph, readings split on whitespace only, and meanings are stemmed
// English without stop word removal.
func NewMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()

	analyzers := []struct {
		name      string
		tokenizer string
		filters   []any
	}{
		{analyzerUnicode, unicode.Name, []any{}},
		{analyzerWhitespace, whitespace.Name, []any{}},
		{analyzerSingle, single.Name, []any{}},
		{analyzerMeaning, unicode.Name, []any{en.PossessiveName, lowercase.Name, en.SnowballStemmerName}},
	}
	for _, a := range analyzers {
		if err := im.AddCustomAnalyzer(a.name, map[string]any{
			"type":          custom.Name,
			"char_filters":  []any{},
			"tokenizer":     a.tokenizer,
			"token_filters": a.filters,
		}); err != nil {
			return nil, err
		}
	}

	entry := bleve.NewDocumentMapping()
	entry.AddFieldMappingsAt(FieldHeadword, textField(analyzerUnicode, true))
	entry.AddFieldMappingsAt(FieldVariants, textField(analyzerUnicode, false))
	entry.AddFieldMappingsAt(FieldSource, textField(analyzerSingle, false))
	entry.AddFieldMappingsAt(fieldHeadwordExact, textField(analyzerSingle, false))
	entry.AddFieldMappingsAt(fieldVariantsExact, textField(analyzerSingle, false))

	record := bleve.NewTextFieldMapping()
	record.Index = false
	record.IncludeInAll = false
	record.IncludeTermVectors = false
	entry.AddFieldMappingsAt(fieldRecord, record)

	def := bleve.NewDocumentMapping()
	def.AddFieldMappingsAt("meanings", textField(analyzerMeaning, true))
	def.AddFieldMappingsAt("readings", textField(analyzerWhitespace, true))
	def.AddFieldMappingsAt("readingsPlain", textField(analyzerWhitespace, false))
	entry.AddSubDocumentMapping("definitions", def)

	im.DefaultMapping = entry
	return im, nil
}

func textField(analyzer string, inAll bool) *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = analyzer
	f.IncludeInAll = inAll
	return f
}
