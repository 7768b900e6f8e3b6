package verify

import (
	"strings"

	"callcheck/internal/textnorm"
)

// uiNoise marks screen strings that belong to the app chrome rather than the
// order. Any scraped text containing one of these (case-insensitive) is
// dropped before matching.
var uiNoise = []string{
	"scrim", "remove all", "remove", "more sauce?",
	"add extra cheese", "subtotal", "tax", "make it large",
	"order complete", "overview", "order details", "view rewards",
	"papa rewards", "get directions", "menu", "cart", "home",
	"deals", "profile", "rewards",
}

// FilterNoise drops UI chrome and bare price lines ("$14.99") from scraped
// screen text, keeping only strings that could describe an ordered item.
func FilterNoise(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		lower := strings.ToLower(strings.TrimSpace(text))
		if lower == "" || containsNoise(lower) || isBarePrice(lower) {
			continue
		}
		out = append(out, text)
	}
	return out
}

func containsNoise(lower string) bool {
	for _, n := range uiNoise {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// isBarePrice reports whether the string is a price and nothing else.
func isBarePrice(lower string) bool {
	if !strings.HasPrefix(lower, "$") {
		return false
	}
	rest := strings.ReplaceAll(strings.ReplaceAll(lower, "$", ""), ".", "")
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// screenIndex is the lookup structure built from filtered screen text: a
// token set for ratio matching and the concatenated cleaned text for the
// phrase-substring fallback. The token set keeps stop words: "order" on
// screen is still a token someone's keywords could hit.
type screenIndex struct {
	tokens   map[string]struct{}
	combined string
}

func indexScreen(texts []string) screenIndex {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		cleaned = append(cleaned, textnorm.Clean(t))
	}
	return screenIndex{
		tokens:   textnorm.TokenSet(texts...),
		combined: strings.Join(cleaned, " "),
	}
}

// ItemMatcher decides whether expected order items are represented in
// scraped screen text. Matching is deterministic: keyword ratios and
// substring checks only, so a result can never hallucinate an item.
type ItemMatcher struct {
	minRatio float64
}

// NewItemMatcher builds a matcher. minRatio is the fraction of an item's
// keywords that must appear on screen; values outside (0,1] fall back to 0.6.
func NewItemMatcher(minRatio float64) *ItemMatcher {
	if minRatio <= 0 || minRatio > 1 {
		minRatio = 0.6
	}
	return &ItemMatcher{minRatio: minRatio}
}

// Match partitions the expected items into those found on screen and those
// missing. screenTexts must already be noise-filtered.
func (m *ItemMatcher) Match(expected, screenTexts []string) (matched, missing []string) {
	idx := indexScreen(screenTexts)
	matched = []string{}
	missing = []string{}
	for _, item := range expected {
		if m.found(item, idx) {
			matched = append(matched, item)
		} else {
			missing = append(missing, item)
		}
	}
	return matched, missing
}

// found applies the primary ratio check and the phrase-substring fallback.
// An item with no meaningful keywords ("1 of the") counts as present: there
// is nothing to disprove.
func (m *ItemMatcher) found(item string, idx screenIndex) bool {
	kws := textnorm.Tokens(item)
	if len(kws) == 0 {
		return true
	}

	hits := 0
	for _, kw := range kws {
		if tokenMatch(kw, idx.tokens) {
			hits++
		}
	}
	if float64(hits)/float64(len(kws)) >= m.minRatio {
		return true
	}

	return strings.Contains(idx.combined, strings.Join(kws, " "))
}

// tokenMatch checks set membership with single-step plural/singular folding
// so "breadsticks" matches "breadstick" and vice versa.
func tokenMatch(kw string, tokens map[string]struct{}) bool {
	if _, ok := tokens[kw]; ok {
		return true
	}
	if strings.HasSuffix(kw, "s") {
		if _, ok := tokens[kw[:len(kw)-1]]; ok {
			return true
		}
	}
	_, ok := tokens[kw+"s"]
	return ok
}

// Score converts a match count into the 0-100 scale. Zero expected items
// scores zero.
func Score(matched, total int) int {
	if total == 0 {
		return 0
	}
	return 100 * matched / total
}
