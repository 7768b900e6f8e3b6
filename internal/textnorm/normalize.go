// Package textnorm normalizes free text for tolerant order-item matching.
// It lowercases, folds punctuation to whitespace, canonicalizes size
// abbreviations, and drops stop words that carry no discriminative signal
// on an order screen.
package textnorm

import "strings"

// sizeAliases maps spoken/printed size abbreviations to their canonical form
// so "lg" compares equal to "large".
var sizeAliases = map[string]string{
	"lg":  "large",
	"lrg": "large",
	"md":  "medium",
	"med": "medium",
	"sm":  "small",
	"xl":  "xlarge",
}

// stopWords are tokens with no item-matching signal: articles, conjunctions,
// small cardinals, and two domain words. "order" means a serving ("1 Order of
// Breadsticks") and "pizza" appears in almost every screen line.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "with": {}, "and": {}, "or": {},
	"of": {}, "for": {}, "on": {}, "in": {},
	"0": {}, "1": {}, "2": {}, "3": {}, "4": {}, "5": {}, "6": {}, "7": {}, "8": {}, "9": {},
	"one": {}, "two": {}, "three": {}, "four": {}, "five": {},
	"order": {},
	"pizza": {},
}

// Clean lowercases text and replaces every non-alphanumeric rune with a
// space. The result is suitable for whitespace splitting and substring
// checks.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// CanonicalSize maps a known size abbreviation to its canonical token.
// Unknown tokens pass through unchanged.
func CanonicalSize(token string) string {
	if canon, ok := sizeAliases[token]; ok {
		return canon
	}
	return token
}

// IsStopWord reports whether the token is filtered from keyword matching.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Tokens returns the ordered, normalized, stop-filtered tokens of text.
// The sequence is not deduplicated so callers can run phrase-substring
// checks over it. Empty input yields an empty slice.
func Tokens(text string) []string {
	fields := strings.Fields(Clean(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = CanonicalSize(f)
		if IsStopWord(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// TokenSet returns the normalized tokens of text with set semantics.
// Unlike Tokens it keeps stop words out but folds size aliases, matching
// how screen text is indexed for membership checks.
func TokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, f := range strings.Fields(Clean(text)) {
			set[CanonicalSize(f)] = struct{}{}
		}
	}
	return set
}
