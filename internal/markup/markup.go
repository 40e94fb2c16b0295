// Package markup converts the inline HTML found in dictionary cells into
// plain multi-line text.
package markup

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// ToText renders s as plain text. Line breaks become newlines, block
// elements start a new line and paragraph-level elements are separated by a
// blank line. Emphasis is dropped, entities are decoded and runs of
// whitespace collapse to one space. Lines are never wrapped.
func ToText(s string) string {
	var (
		w    textWriter
		skip int
	)
	z := html.NewTokenizer(strings.NewReader(s))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return norm.NFC.String(strings.TrimRight(w.String(), " \n"))

		case html.TextToken:
			if skip == 0 {
				w.text(string(z.Text()))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && tt == html.StartTagToken {
				skip++
				continue
			}
			w.open(a)

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				if skip > 0 {
					skip--
				}
				continue
			}
			w.close(a)
		}
	}
}

// Lines renders s with ToText and returns its trimmed lines. Blank lines
// inside the text are kept; leading and trailing blank lines are dropped.
func Lines(s string) []string {
	raw := strings.Split(ToText(s), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

type textWriter struct {
	b            strings.Builder
	pendingSpace bool
}

func (w *textWriter) String() string { return w.b.String() }

func (w *textWriter) atLineStart() bool {
	s := w.b.String()
	return s == "" || strings.HasSuffix(s, "\n")
}

func (w *textWriter) text(s string) {
	for _, r := range s {
		if unicode.IsSpace(r) {
			w.pendingSpace = true
			continue
		}
		if w.pendingSpace && !w.atLineStart() {
			w.b.WriteByte(' ')
		}
		w.pendingSpace = false
		w.b.WriteRune(r)
	}
}

func (w *textWriter) newline() {
	w.b.WriteByte('\n')
	w.pendingSpace = false
}

func (w *textWriter) endLine() {
	if !w.atLineStart() {
		w.newline()
	}
	w.pendingSpace = false
}

func (w *textWriter) paragraph() {
	if w.b.Len() == 0 {
		return
	}
	w.endLine()
	if !strings.HasSuffix(w.b.String(), "\n\n") {
		w.newline()
	}
}

func (w *textWriter) open(a atom.Atom) {
	switch {
	case a == atom.Br:
		w.newline()
	case a == atom.Hr:
		w.paragraph()
	case isParagraph(a):
		w.paragraph()
	case isBlock(a):
		w.endLine()
	}
}

func (w *textWriter) close(a atom.Atom) {
	switch {
	case isParagraph(a):
		w.paragraph()
	case isBlock(a):
		w.endLine()
	}
}

func isParagraph(a atom.Atom) bool {
	switch a {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Table, atom.Ul, atom.Ol, atom.Dl:
		return true
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Li, atom.Tr, atom.Dd, atom.Dt:
		return true
	}
	return false
}
