package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		// two letter runs (2×1.3) + one space (0.5) = 3.1 → 4
		{"two ascii words", "hello world", 4},
		// three CJK chars at 1.5 = 4.5 → 5
		{"cjk", "你好吗", 5},
		// 1.3 + 0.5 + 1.5 = 3.3 → 4
		{"mixed", "Hi 你", 4},
		// digits are "remaining" chars: 4×0.5 = 2
		{"digits", "2024", 2},
		// punctuation breaks a letter run: 1.3 + 0.5 + 1.3 = 3.1 → 4
		{"hyphenated", "re-run", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestEstimateTokensLongText(t *testing.T) {
	// 1000 × (one letter run at 1.3 + one space at 0.5) = 1800 exactly.
	assert.Equal(t, 1800, EstimateTokens(strings.Repeat("word ", 1000)))
}
