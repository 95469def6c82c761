// internal/common/textfold/textfold.go

// Package textfold normalizes loosely typed user text before matching:
// accent folding for Portuguese phrases and quote normalization for labels
// pasted from rich-text editors.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics, so "Últimos 5 dias ÚTEIS"
// compares equal to "ultimos 5 dias uteis".
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"‘", "'", // left single
	"’", "'", // right single
	"«", `"`,
	"»", `"`,
)

// NormalizeQuotes replaces curly and angle quotes with their ASCII forms.
func NormalizeQuotes(s string) string {
	return quoteReplacer.Replace(s)
}

// StripQuotes removes one pair of surrounding quote characters, if present.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
