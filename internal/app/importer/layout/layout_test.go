package layout

import (
	"errors"
	"reflect"
	"testing"
)

func TestStripNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "1. heaven", want: "heaven"},
		{input: "12.  sky", want: "sky"},
		{input: "2.5 catties make a kan", want: "2.5 catties make a kan"},
		{input: "3.sky", want: "3.sky"},
		{input: "heaven", want: "heaven"},
		{input: "a. heaven", want: "a. heaven"},
		{input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := StripNumber(tt.input); got != tt.want {
				t.Errorf("StripNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitBreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []string
	}{
		{input: "天<br>t'ien", want: []string{"天", "t'ien"}},
		{input: "天<BR />t'ien<br>x", want: []string{"天", "t'ien<br>x"}},
		{input: "天", want: []string{"天"}},
	}
	for _, tt := range tests {
		if got := SplitBreak(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitBreak(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitRule(t *testing.T) {
	t.Parallel()

	if got := SplitRule("a<hr>b<HR/>c"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitRule = %q", got)
	}
	if got := RemoveRules("a<hr>b<hr />c"); got != "abc" {
		t.Errorf("RemoveRules = %q", got)
	}
}

func TestCheckCells(t *testing.T) {
	t.Parallel()

	if err := CheckCells([]string{"a", "b"}, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckCells([]string{"a"}, 2); !errors.Is(err, ErrMalformedRow) {
		t.Errorf("got %v, want ErrMalformedRow", err)
	}
}
