package markup

import (
	"reflect"
	"testing"
)

func TestToText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "to measure", want: "to measure"},
		{name: "line break", input: "a<br>b", want: "a\nb"},
		{name: "self-closing break", input: "a<br/>b", want: "a\nb"},
		{name: "double break keeps blank line", input: "a<br><br>b", want: "a\n\nb"},
		{name: "paragraphs", input: "<p>a</p><p>b</p>", want: "a\n\nb"},
		{name: "horizontal rule", input: "r<hr>m", want: "r\n\nm"},
		{name: "divs", input: "<div>a</div><div>b</div>", want: "a\nb"},
		{name: "list items", input: "<ul><li>a</li><li>b</li></ul>", want: "a\nb"},
		{name: "emphasis dropped", input: "<b>bold</b> and <i>it</i>", want: "bold and it"},
		{name: "font kept as text", input: `*<font color="red">tsak</font>`, want: "*tsak"},
		{name: "entities", input: "a &amp; b &lt;c&gt;", want: "a & b <c>"},
		{name: "whitespace collapsed", input: "  a \t  b\n c  ", want: "a b c"},
		{name: "script dropped", input: "<script>var x = 1;</script>y", want: "y"},
		{name: "style dropped", input: "<style>p { }</style>y", want: "y"},
		{name: "nfc", input: "cafe\u0301", want: "caf\u00e9"},
		{name: "empty", input: "", want: ""},
		{name: "han", input: "測<br>ts'ak", want: "測\nts'ak"},
		{name: "no wrapping", input: "a very long line that a wrapping converter would have broken somewhere past the usual seventy eight columns", want: "a very long line that a wrapping converter would have broken somewhere past the usual seventy eight columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ToText(tt.input); got != tt.want {
				t.Errorf("ToText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "edges trimmed", input: "<br> a <br><br> b <br>", want: []string{"a", "", "b"}},
		{name: "annotation block", input: "(two words)<br>ts'ak<br><br>ts'ik<br>tsak", want: []string{"(two words)", "ts'ak", "", "ts'ik", "tsak"}},
		{name: "empty", input: "", want: []string{}},
		{name: "only breaks", input: "<br><br>", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Lines(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lines(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
