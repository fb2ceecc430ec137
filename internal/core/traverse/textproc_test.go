package traverse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendNonOverlapping(t *testing.T) {
	t.Run("empty existing returns new", func(t *testing.T) {
		assert.Equal(t, "fresh", AppendNonOverlapping("", "fresh"))
	})

	t.Run("empty new returns existing", func(t *testing.T) {
		assert.Equal(t, "kept", AppendNonOverlapping("kept", ""))
	})

	t.Run("overlap is deduplicated", func(t *testing.T) {
		existing := "job one\njob two\njob three"
		grown := "job one\njob two\njob three\njob four\njob five"
		assert.Equal(t, "job one\njob two\njob three\njob four\njob five",
			AppendNonOverlapping(existing, grown))
	})

	t.Run("no overlap appends with separator", func(t *testing.T) {
		assert.Equal(t, "page one\n\npage two", AppendNonOverlapping("page one", "page two"))
	})

	t.Run("only the tail window is matched", func(t *testing.T) {
		prefix := strings.Repeat("a", 300)
		tail := strings.Repeat("b", overlapCheckSize)
		existing := prefix + tail
		grown := tail + "NEW CONTENT"
		assert.Equal(t, existing+"NEW CONTENT", AppendNonOverlapping(existing, grown))
	})
}

func TestSplitIntoChunksShortTextIsOneChunk(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SplitIntoChunks("hello"))
	assert.Equal(t, []string{""}, SplitIntoChunks(""))
}

func TestSplitIntoChunksBreaksAfterNewline(t *testing.T) {
	line := strings.Repeat("x", 999) + "\n"
	text := strings.Repeat(line, 200) // 200k chars, newline every 1000

	chunks := SplitIntoChunks(text)
	require.Len(t, chunks, 2)
	for _, c := range chunks[:len(chunks)-1] {
		assert.LessOrEqual(t, len(c), maxChunkSize)
		assert.True(t, strings.HasSuffix(c, "\n"), "chunk should end on a line boundary")
	}
	assert.Equal(t, text, strings.Join(chunks, ""), "chunks must reassemble to the input")
}

func TestSplitIntoChunksNoNewlineHardSplits(t *testing.T) {
	text := strings.Repeat("x", maxChunkSize+10)
	chunks := SplitIntoChunks(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, maxChunkSize, len(chunks[0]))
	assert.Equal(t, 10, len(chunks[1]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}
