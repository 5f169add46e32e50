package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextEmptyInput(t *testing.T) {
	assert.Nil(t, SplitText("", ChunkOptions{MaxChunkSize: 100}))
	assert.Nil(t, SplitText("   \n\n  \t ", ChunkOptions{MaxChunkSize: 100}))
}

func TestSplitTextCoverageAndOrder(t *testing.T) {
	paras := []string{
		strings.Repeat("alpha ", 30),
		strings.Repeat("bravo ", 30),
		strings.Repeat("charlie ", 30),
		strings.Repeat("delta ", 30),
	}
	for i := range paras {
		paras[i] = strings.TrimSpace(paras[i])
	}
	text := strings.Join(paras, "\n\n")

	chunks := SplitText(text, ChunkOptions{MaxChunkSize: 400, OverlapSize: 50, MinChunkSize: 10})
	require.NotEmpty(t, chunks)

	// Indices are 0..N-1 contiguous.
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}

	// Every paragraph appears, in original order, across the chunk sequence.
	joined := ""
	for _, c := range chunks {
		joined += c.Content + "\n\n"
	}
	last := 0
	for _, p := range paras {
		idx := strings.Index(joined[last:], p)
		require.GreaterOrEqual(t, idx, 0, "paragraph missing or out of order: %q", p[:12])
		last += idx
	}
}

func TestSplitTextOverlapInvariant(t *testing.T) {
	paras := []string{
		strings.TrimSpace(strings.Repeat("one two three four five ", 10)),
		strings.TrimSpace(strings.Repeat("six seven eight nine ten ", 10)),
		strings.TrimSpace(strings.Repeat("alpha beta gamma delta ", 10)),
	}
	text := strings.Join(paras, "\n\n")

	const overlap = 60
	chunks := SplitText(text, ChunkOptions{MaxChunkSize: 300, OverlapSize: overlap, MinChunkSize: 10})
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1].Content)
		n := overlap / approxCharsPerWord
		if n > len(prevWords) {
			n = len(prevWords)
		}
		tail := strings.Join(prevWords[len(prevWords)-n:], " ")
		assert.True(t, strings.HasPrefix(chunks[i].Content, tail),
			"chunk %d does not start with the overlap tail of chunk %d", i, i-1)
	}
}

func TestSplitTextDropsTinyTrailingFragment(t *testing.T) {
	big := strings.TrimSpace(strings.Repeat("word ", 100)) // ~500 chars
	text := big + "\n\n" + big + "\n\nend."

	chunks := SplitText(text, ChunkOptions{MaxChunkSize: 500, OverlapSize: 0, MinChunkSize: 100})
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.NotContains(t, c.Content, "end.")
	}
}

func TestSplitTextOversizedParagraphKeptWhole(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("lorem ipsum ", 500)) // ~6000 chars
	chunks := SplitText(para, ChunkOptions{MaxChunkSize: 1000, OverlapSize: 100, MinChunkSize: 50})
	require.Len(t, chunks, 1)
	assert.Equal(t, para, chunks[0].Content)
}

func TestSplitTextSmallThenHugeParagraph(t *testing.T) {
	small := strings.Repeat("a", 100)
	huge := strings.Repeat("b", 9000)
	text := small + "\n\n" + huge

	chunks := SplitText(text, ChunkOptions{MaxChunkSize: 8000, OverlapSize: 200, MinChunkSize: 500})
	require.Len(t, chunks, 2)

	assert.Equal(t, small, chunks[0].Content)
	assert.Contains(t, chunks[1].Content, huge)

	// Offsets are separator-inclusive cumulative positions.
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 102, chunks[0].End)
	assert.Equal(t, 102+9002, chunks[1].End)
}

func TestOverlapTail(t *testing.T) {
	assert.Equal(t, "", overlapTail("some text here", 0))
	assert.Equal(t, "", overlapTail("", 50))
	assert.Equal(t, "four five", overlapTail("one two three four five", 10))
	// Budget larger than the chunk returns the whole chunk's words.
	assert.Equal(t, "one two", overlapTail("one two", 500))
}
