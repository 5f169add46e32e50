package retrieval

import (
	"regexp"
	"strings"
)

// ChunkOptions controls how SplitText cuts a document.
type ChunkOptions struct {
	MaxChunkSize int // soft ceiling in characters per chunk
	OverlapSize  int // approximate characters carried over between chunks
	MinChunkSize int // trailing fragments below this are discarded
}

// TextChunk is one slice of the source text with its position metadata.
// Start/End are cumulative offsets counted over trimmed paragraphs plus the
// two-character separator between them, not exact substring offsets of the
// emitted content (the overlap tail is excluded from offset accounting).
type TextChunk struct {
	Index   int
	Content string
	Start   int
	End     int
}

// approxCharsPerWord converts the overlap character budget into a word count.
const approxCharsPerWord = 5

var paragraphSplit = regexp.MustCompile(`\r?\n\s*\r?\n`)

// SplitText splits text into overlapping, paragraph-respecting chunks.
// Paragraphs are accumulated greedily; when the next paragraph would push the
// buffer past MaxChunkSize the chunk is closed and the next one is seeded
// with the trailing words of the previous chunk. A single paragraph larger
// than MaxChunkSize is emitted whole rather than split further.
func SplitText(text string, opts ChunkOptions) []TextChunk {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = 1000
	}
	if opts.OverlapSize < 0 {
		opts.OverlapSize = 0
	}
	if opts.MinChunkSize < 0 {
		opts.MinChunkSize = 0
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []TextChunk
	current := ""
	chunkStart := 0
	pos := 0

	for _, raw := range paragraphSplit.Split(text, -1) {
		para := strings.TrimSpace(raw)
		if para == "" {
			continue
		}

		if current != "" && len(current)+2+len(para) > opts.MaxChunkSize {
			chunks = append(chunks, TextChunk{
				Index:   len(chunks),
				Content: strings.TrimSpace(current),
				Start:   chunkStart,
				End:     pos,
			})
			tail := overlapTail(current, opts.OverlapSize)
			chunkStart = pos - len(tail)
			if chunkStart < 0 {
				chunkStart = 0
			}
			if tail != "" {
				current = tail + "\n\n" + para
			} else {
				current = para
			}
		} else if current == "" {
			chunkStart = pos
			current = para
		} else {
			current += "\n\n" + para
		}

		pos += len(para) + 2
	}

	if trimmed := strings.TrimSpace(current); len(trimmed) >= opts.MinChunkSize && trimmed != "" {
		chunks = append(chunks, TextChunk{
			Index:   len(chunks),
			Content: trimmed,
			Start:   chunkStart,
			End:     pos,
		})
	}
	return chunks
}

// overlapTail returns the trailing words of chunk totalling roughly
// budget characters, assuming ~5 characters per word. The heuristic breaks
// down for CJK text (no whitespace word boundaries); that behavior is kept
// as-is for parity with the chunk offsets already stored.
func overlapTail(chunk string, budget int) string {
	if budget <= 0 {
		return ""
	}
	words := strings.Fields(chunk)
	if len(words) == 0 {
		return ""
	}
	n := budget / approxCharsPerWord
	if n <= 0 {
		return ""
	}
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[len(words)-n:], " ")
}
