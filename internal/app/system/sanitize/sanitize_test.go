package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"<script>alert(1)</script>hello", "hello"},
		{"<b>bold</b> words", "bold words"},
		{"  padded  ", "padded"},
		{"<img src=x onerror=alert(1)>", ""},
		{"a < b and b > a", "a &lt; b and b &gt; a"},
	}
	for _, tt := range tests {
		if got := Text(tt.input); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
