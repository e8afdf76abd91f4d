package utils

import (
	"regexp"
	"strings"
)

// Cleanup patterns for text extracted from notes and scanned documents.
var (
	hyphenWrapRe    = regexp.MustCompile(`(\w+)-\n(\w+)`)
	spacedHyphenRe  = regexp.MustCompile(`(\w)\s*-\s*(\w)`)
	dashRunRe       = regexp.MustCompile(`—+`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)

	unwantedLiterals = []string{`\n`, "  —", "", ""}
)

// CleanText normalizes raw session text before chunking: rejoins words
// broken across line wraps, strips stray bullet glyphs and escaped
// sequences, and collapses runs of dashes and whitespace.
func CleanText(text string) string {
	cleaned := hyphenWrapRe.ReplaceAllString(text, "$1$2")
	for _, lit := range unwantedLiterals {
		cleaned = strings.ReplaceAll(cleaned, lit, " ")
	}
	cleaned = dashRunRe.ReplaceAllString(cleaned, " ")
	cleaned = spacedHyphenRe.ReplaceAllString(cleaned, "$1-$2")
	cleaned = whitespaceRunRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
