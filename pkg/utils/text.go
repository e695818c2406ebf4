// Package utils provides shared utilities for text handling and logging.
package utils

import "strings"

func isWordSep(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Words splits s on runs of spaces, tabs and line breaks, dropping empty fields.
func Words(s string) []string {
	return strings.FieldsFunc(s, isWordSep)
}

// WordCount returns the number of words in s as counted by Words.
func WordCount(s string) int {
	return len(Words(s))
}

// TrimWords returns the first n words of s joined by single spaces.
// Whitespace is normalized even when s has n words or fewer.
func TrimWords(s string, n int) string {
	words := Words(s)
	if n >= 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// LastWords returns the final n words of s joined by single spaces.
func LastWords(s string, n int) string {
	words := Words(s)
	if n >= 0 && len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}

// EndsWithSpace reports whether the final byte of s is ASCII whitespace.
func EndsWithSpace(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikeContains returns a SQL LIKE pattern matching s anywhere, for use with ESCAPE '\'.
func LikeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
