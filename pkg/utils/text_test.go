package utils

import (
	"testing"
)

func TestTrimWords(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"one two three", 5, "one two three"},
		{"one  two\n\tthree", 5, "one two three"},
		{"one two three four", 2, "one two"},
		{"", 3, ""},
		{"a b", 0, ""},
	}
	for _, tt := range tests {
		if got := TrimWords(tt.in, tt.n); got != tt.want {
			t.Errorf("TrimWords(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestLastWords(t *testing.T) {
	if got := LastWords("a b c d e", 2); got != "d e" {
		t.Errorf("got %q", got)
	}
	if got := LastWords("  a b  ", 10); got != "a b" {
		t.Errorf("got %q", got)
	}
	if got := LastWords("", 10); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if WordCount(" hello \r\n world ") != 2 {
		t.Error("expected 2 words")
	}
}

func TestEndsWithSpace(t *testing.T) {
	if EndsWithSpace("") || EndsWithSpace("abc") {
		t.Error("no trailing space expected")
	}
	if !EndsWithSpace("abc ") || !EndsWithSpace("abc\n") {
		t.Error("trailing space expected")
	}
}
