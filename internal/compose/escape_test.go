package compose

import "testing"

func TestEscapeFilterPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain unix path unchanged", "/tmp/subs/movie_es.srt", "/tmp/subs/movie_es.srt"},
		{"drive letter colon escaped", `C:\subs\movie.srt`, `C\:/subs/movie.srt`},
		{"backslashes become slashes", `subs\movie.srt`, "subs/movie.srt"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeFilterPath(tt.in); got != tt.want {
				t.Errorf("EscapeFilterPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeDrawText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "Hello there", "Hello there"},
		{"apostrophe becomes typographic quote", "don't", "don’t"},
		{"colon escaped", "Warning: danger", `Warning\: danger`},
		{"percent escaped", "100% done", `100\% done`},
		{"comma escaped", "one, two", `one\, two`},
		{"backslash escaped first", `a\b`, `a\\b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeDrawText(tt.in); got != tt.want {
				t.Errorf("EscapeDrawText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
