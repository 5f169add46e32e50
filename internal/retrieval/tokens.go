package retrieval

import (
	"math"
	"unicode"
)

// Token cost weights for the approximate estimator. These are deliberately
// heuristic and must stay stable: budgeting decisions (and their tests)
// depend on this exact arithmetic, not on an exact tokenizer.
const (
	cjkTokenWeight   = 1.5
	wordTokenWeight  = 1.3
	otherTokenWeight = 0.5
)

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// EstimateTokens approximates the token cost of text for context budgeting:
// CJK characters weigh 1.5 each, contiguous ASCII letter runs weigh 1.3 per
// run, and every remaining character weighs 0.5; the sum is rounded up.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	var total float64
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r):
			total += cjkTokenWeight
			inWord = false
		case isASCIILetter(r):
			if !inWord {
				total += wordTokenWeight
				inWord = true
			}
		default:
			total += otherTokenWeight
			inWord = false
		}
	}
	return int(math.Ceil(total))
}
