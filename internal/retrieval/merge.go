package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// DefaultHybridAlpha is the semantic weight used when the caller does not
// supply one.
const DefaultHybridAlpha = 0.7

// fingerprintLength is how many leading characters of content participate in
// the near-duplicate fingerprint. Two genuinely different chunks sharing the
// same 100-character prefix collapse into one; that aggressiveness is a known
// precision/recall tradeoff against overlapping chunk windows.
const fingerprintLength = 100

// MergeResults combines semantic and keyword result sets into one
// deduplicated ranking. alpha is the semantic weight in [0,1]: semantic
// scores are multiplied by alpha, keyword scores by 1-alpha, and a chunk
// found by both paths gets the sum and the hybrid tag. After merging,
// results whose content shares a leading-100-character fingerprint with an
// earlier result are dropped, then everything is sorted by blended score.
func MergeResults(semantic, keyword []SearchResult, alpha float64) []SearchResult {
	if alpha < 0 || alpha > 1 {
		alpha = DefaultHybridAlpha
	}

	merged := make([]SearchResult, 0, len(semantic)+len(keyword))
	byChunk := make(map[uint]int, len(semantic))

	for _, r := range semantic {
		r.Score *= alpha
		byChunk[r.ChunkID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range keyword {
		if i, ok := byChunk[r.ChunkID]; ok {
			merged[i].Score += r.Score * (1 - alpha)
			merged[i].Relevance = RelevanceHybrid
			continue
		}
		r.Score *= 1 - alpha
		byChunk[r.ChunkID] = len(merged)
		merged = append(merged, r)
	}

	seen := make(map[string]struct{}, len(merged))
	deduped := merged[:0]
	for _, r := range merged {
		fp := contentFingerprint(r.Content)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Score > deduped[j].Score
	})
	return deduped
}

func contentFingerprint(content string) string {
	runes := []rune(content)
	if len(runes) > fingerprintLength {
		runes = runes[:fingerprintLength]
	}
	sum := sha256.Sum256([]byte(string(runes)))
	return hex.EncodeToString(sum[:])
}
