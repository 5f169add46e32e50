package retrieval

import (
	"fmt"
	"strings"
)

// BudgetConfig is the per-model context budgeting tunable set.
type BudgetConfig struct {
	MaxTokens      int // model context window, approximated in estimator tokens
	ReservedTokens int // headroom for instructions, question, and the reply
	MaxChunkSize   int // chars
	OverlapSize    int // chars
	MinChunkSize   int // chars
	MaxChunks      int // relevant chunks to include at most
}

// Available returns the token budget left for document content.
func (c BudgetConfig) Available() int {
	return c.MaxTokens - c.ReservedTokens
}

// Base presets, matched by model-name substring. Unknown models use the
// gpt-4o-mini preset.
var budgetPresets = []struct {
	substr string
	cfg    BudgetConfig
}{
	{"gpt-4o-mini", BudgetConfig{MaxTokens: 120000, ReservedTokens: 2000, MaxChunkSize: 8000, OverlapSize: 800, MinChunkSize: 500, MaxChunks: 10}},
	{"gpt-4", BudgetConfig{MaxTokens: 7600, ReservedTokens: 1200, MaxChunkSize: 4000, OverlapSize: 400, MinChunkSize: 300, MaxChunks: 6}},
	{"claude-3", BudgetConfig{MaxTokens: 180000, ReservedTokens: 4000, MaxChunkSize: 10000, OverlapSize: 1000, MinChunkSize: 500, MaxChunks: 12}},
}

const defaultPresetName = "gpt-4o-mini"

// Document-size adaptation bounds.
const (
	largeDocumentChars = 100_000
	smallDocumentChars = 10_000
	maxChunkSizeCap    = 12000
	overlapSizeCap     = 2000
	minChunkSizeFloor  = 1000
	minOverlapFloor    = 100
)

// SelectBudgetConfig maps a model name and the total document text length to
// a concrete budgeting configuration. Large documents get bigger chunks and
// overlap (capped); small documents get tighter ones (floored). Pure and
// deterministic for the same inputs.
func SelectBudgetConfig(modelName string, totalChars int) BudgetConfig {
	cfg := presetFor(modelName)

	switch {
	case totalChars > largeDocumentChars:
		cfg.MaxChunkSize = capInt(int(float64(cfg.MaxChunkSize)*1.5), maxChunkSizeCap)
		cfg.OverlapSize = capInt(int(float64(cfg.OverlapSize)*1.2), overlapSizeCap)
	case totalChars > 0 && totalChars < smallDocumentChars:
		cfg.MaxChunkSize = floorInt(cfg.MaxChunkSize/2, minChunkSizeFloor)
		cfg.OverlapSize = floorInt(cfg.OverlapSize/2, minOverlapFloor)
	}
	return cfg
}

// ChunkOptions derives the chunker settings from a budget configuration.
func (c BudgetConfig) ChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxChunkSize: c.MaxChunkSize,
		OverlapSize:  c.OverlapSize,
		MinChunkSize: c.MinChunkSize,
	}
}

func presetFor(modelName string) BudgetConfig {
	name := strings.ToLower(modelName)
	for _, p := range budgetPresets {
		if strings.Contains(name, p.substr) {
			return p.cfg
		}
	}
	for _, p := range budgetPresets {
		if p.substr == defaultPresetName {
			return p.cfg
		}
	}
	return budgetPresets[0].cfg
}

func capInt(v, cap int) int {
	if v > cap {
		return cap
	}
	return v
}

func floorInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

const contextPreamble = "The following excerpts come from the user's documents. " +
	"Answer using only this material; if it does not contain the answer, say so.\n\n"

// BuildChunkContext assembles the largest context string that fits the token
// budget from ranked chunks. Chunks are appended first-fit in rank order:
// once the next chunk would exceed MaxTokens-ReservedTokens assembly stops —
// no reordering or backfilling smaller chunks into the remaining budget.
func BuildChunkContext(results []SearchResult, cfg BudgetConfig) string {
	var b strings.Builder
	b.WriteString(contextPreamble)
	used := EstimateTokens(contextPreamble)
	available := cfg.Available()

	included := 0
	for _, r := range results {
		if cfg.MaxChunks > 0 && included >= cfg.MaxChunks {
			break
		}
		block := fmt.Sprintf("[%s · part %d]\n%s\n\n", r.DocumentName, r.ChunkIndex+1, r.Content)
		cost := EstimateTokens(block)
		if used+cost > available {
			break
		}
		b.WriteString(block)
		used += cost
		included++
	}

	b.WriteString(fmt.Sprintf("End of excerpts. Base the answer strictly on the excerpts above. (context tokens: %d)", used))
	return b.String()
}

// BuildFullContext passes full document text through unmodified. No
// truncation happens at this layer: in full-document mode the budget check is
// the caller's responsibility.
func BuildFullContext(fullText string) string {
	return fullText
}
