// Package textnorm turns raw query and title text into the token form the
// text index was fitted on.
package textnorm

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Clean lowercases text, drops everything except ASCII letters, digits and
// whitespace, Porter-stems every remaining token and joins them with single
// spaces. The result may be empty.
func Clean(text string) string {
	return strings.Join(Tokens(text), " ")
}

// Tokens is Clean without the final join.
func Tokens(text string) []string {
	fields := strings.Fields(strip(strings.ToLower(text)))
	for i, f := range fields {
		fields[i] = porterstemmer.StemString(f)
	}
	return fields
}

func strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return b.String()
}
