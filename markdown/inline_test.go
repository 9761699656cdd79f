package markdown

import "testing"

func TestCleanInline(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"**bold** and __strong__", "bold and strong"},
		{"*italic* words", "italic words"},
		{"a [link](http://example.com) here", "a link here"},
		{"some  `code`   span", "some code span"},
		{"“smart quotes” and ‘apostrophes’", `"smart quotes" and 'apostrophes'`},
		{"wait… what", "wait... what"},
	}
	for _, tt := range tests {
		if got := CleanInline(tt.in); got != tt.want {
			t.Errorf("CleanInline(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
