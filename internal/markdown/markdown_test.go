package markdown

import (
	"strings"
	"testing"
)

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<i>Hello</i> world", "Hello world"},
		{"<font color=\"#fff\">白</font>", "白"},
		{"a < b and c > d", "a < b and c > d"},
		{"<!-- note -->text", "text"},
		{"<br/>", ""},
	}
	for _, tt := range tests {
		if got := StripHTMLTags(tt.in); got != tt.want {
			t.Errorf("StripHTMLTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToHTML_Table(t *testing.T) {
	md := "# Report\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	out := ToHTML([]byte(md))
	for _, want := range []string{"<h1", "Report", "<table>", "<td>1</td>"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
