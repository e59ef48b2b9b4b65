// Package builder resolves stored email templates into concrete emails:
// key and placeholder normalization, global header/footer fallback, and
// {placeholder} substitution.
package builder

import (
	"regexp"
	"strings"

	"github.com/emailbuilder/emailbuilder/internal/model"
)

var (
	keySeparatorRe       = regexp.MustCompile(`[^a-z0-9]+`)
	placeholderSplitRe   = regexp.MustCompile(`[\s,]+`)
	placeholderInvalidRe = regexp.MustCompile(`[^a-z0-9_]`)
)

// NormalizeKey turns a human-entered template identifier into its lookup
// key: lowercase, runs of anything outside [a-z0-9] collapsed to a single
// underscore, leading and trailing underscores trimmed.
func NormalizeKey(raw string) string {
	key := asciiLower(raw)
	key = keySeparatorRe.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// NormalizePlaceholders returns the sanitized, deduplicated placeholder
// tokens for raw. The result is never nil.
func NormalizePlaceholders(raw *model.RawPlaceholders) []string {
	var tokens []string
	if text, ok := raw.Text(); ok {
		tokens = placeholderSplitRe.Split(asciiLower(text), -1)
	} else if list, ok := raw.List(); ok {
		tokens = list
	}

	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.ReplaceAll(tok, " ", "_")
		tok = placeholderInvalidRe.ReplaceAllString(tok, "")
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// NormalizePlaceholderList is NormalizePlaceholders for an already-split list
func NormalizePlaceholderList(items []string) []string {
	return NormalizePlaceholders(model.PlaceholderList(items))
}

// PlaceholdersToDisplayString joins placeholders for display in authoring UIs
func PlaceholdersToDisplayString(placeholders []string) string {
	return strings.Join(placeholders, ", ")
}

// asciiLower lowercases A-Z only. Other runes are left for the character
// filters to drop, so look-alikes such as the Kelvin sign never turn into
// ASCII letters.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
