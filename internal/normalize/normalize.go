// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package normalize implements the text normalizer: a deterministic,
// idempotent pipeline turning a raw source string into the canonical form
// used by every downstream scorer.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Config is the subset of MatchingConfig the normalizer needs.
type Config struct {
	// SourcePrefixes maps a source-code to the literal prefixes that
	// publication strips from its titles (e.g. boilerplate section
	// labels). Longest match wins.
	SourcePrefixes map[string][]string

	// Synonyms maps a literal token to its canonical replacement, applied
	// after prefix stripping (e.g. regional carnival-dialect synonyms).
	Synonyms map[string]string
}

var umlauts = map[rune]string{
	'ä': "ae", 'ö': "oe", 'ü': "ue", 'ß': "ss",
}

var punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize runs the full pipeline:
// NFC -> casefold -> trim -> umlaut expansion -> punctuation strip (keeping
// intra-word hyphens and spaces) -> whitespace collapse -> prefix strip ->
// synonym normalization. Prefix stripping happens before synonym
// replacement; both only apply when cfg is non-nil.
func Normalize(raw string, sourceCode string, cfg *Config) string {
	s := norm.NFC.String(raw)
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	s = expandUmlauts(s)
	s = punctRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if cfg != nil {
		s = stripPrefix(s, sourceCode, cfg.SourcePrefixes)
		s = applySynonyms(s, cfg.Synonyms)
	}

	return s
}

func expandUmlauts(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := umlauts[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripPrefix removes the longest configured prefix for sourceCode that
// matches the start of s, followed by whitespace trimming.
func stripPrefix(s, sourceCode string, prefixes map[string][]string) string {
	if prefixes == nil {
		return s
	}
	candidates, ok := prefixes[sourceCode]
	if !ok {
		return s
	}

	best := ""
	for _, p := range candidates {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.HasPrefix(s, p) && len(p) > len(best) {
			best = p
		}
	}
	if best == "" {
		return s
	}
	return strings.TrimSpace(strings.TrimPrefix(s, best))
}

// applySynonyms replaces whole-word occurrences of configured synonym keys
// with their canonical token.
func applySynonyms(s string, synonyms map[string]string) string {
	if len(synonyms) == 0 {
		return s
	}
	words := strings.Fields(s)
	for i, w := range words {
		if canon, ok := synonyms[w]; ok {
			words[i] = canon
		}
	}
	return strings.Join(words, " ")
}
