package retrieval

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// nonKeywordChars strips everything except CJK characters, ASCII
// letters/digits, and whitespace before tokenizing.
var nonKeywordChars = regexp.MustCompile(`[^\p{Han}\p{Hiragana}\p{Katakana}\p{Hangul}a-zA-Z0-9\s]+`)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "at": {}, "is": {}, "are": {}, "was": {}, "be": {},
	"for": {}, "with": {}, "by": {}, "it": {}, "this": {}, "that": {},
	"what": {}, "which": {}, "how": {}, "do": {}, "does": {},
	"的": {}, "了": {}, "是": {}, "在": {}, "和": {}, "有": {}, "我": {}, "就": {},
}

// ExtractKeywords tokenizes a query for keyword search: lowercase, strip
// punctuation, drop single-character tokens and stopwords, dedupe preserving
// order. An empty slice means the query has nothing usable for lexical match.
func ExtractKeywords(query string) []string {
	cleaned := nonKeywordChars.ReplaceAllString(strings.ToLower(query), " ")
	seen := make(map[string]struct{})
	var keywords []string
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

// ScoreKeywords returns the fraction of distinct keywords that appear in
// content as a case-insensitive substring, clamped to [0,1]. Presence-based,
// not frequency-weighted.
func ScoreKeywords(content string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	score := float64(matched) / float64(len(keywords))
	if score > 1 {
		score = 1
	}
	return score
}
