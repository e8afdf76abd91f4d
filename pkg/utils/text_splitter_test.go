package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func TestSplitShortTextReturnsSingleChunk(t *testing.T) {
	s := NewTextSplitter(50, 5, wordCount)
	chunks := s.Split("a short note about sleep")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short note about sleep", chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	s := NewTextSplitter(50, 5, wordCount)
	assert.Nil(t, s.Split("   \n  "))
}

func TestSplitRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("patient reported improved mood this week.\n\n")
	}
	s := NewTextSplitter(20, 4, wordCount)

	chunks := s.Split(b.String())
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, wordCount(chunk), 20+4, "chunk %q exceeds size plus overlap", chunk)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	text := "first paragraph about anxiety triggers and coping strategies used at work\n\n" +
		"second paragraph covering sleep hygiene and the agreed homework exercises for next week"
	s := NewTextSplitter(12, 0, wordCount)

	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "first paragraph")
	assert.Contains(t, chunks[1], "second paragraph")
}

func TestSplitOverlapCarriesTrailingWords(t *testing.T) {
	text := "one two three four five six seven eight nine ten\n\n" +
		"eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty"
	s := NewTextSplitter(10, 3, wordCount)

	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	// The second chunk starts with the tail of the first.
	assert.True(t, strings.HasPrefix(chunks[1], "eight nine ten"), "got %q", chunks[1])
}

func TestSplitOversizedSingleWordFallsBackToCharacters(t *testing.T) {
	long := strings.Repeat("x", 500)
	s := NewTextSplitter(100, 10, nil) // rune length

	chunks := s.Split(long)
	require.Len(t, chunks, 5)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
}

func TestSplitCountsJointSeparators(t *testing.T) {
	// A rune-level length counts the newline joints merge inserts, so
	// packed chunks must stay within ChunkSize including those joints.
	text := strings.Repeat("aaaa bbbb\n\n", 12)
	runeLen := func(text string) int { return len([]rune(text)) }
	s := NewTextSplitter(28, 0, runeLen)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, runeLen(chunk), 28, "chunk %q", chunk)
	}
}

func TestSplitCoversAllContent(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi"
	s := NewTextSplitter(5, 0, wordCount)

	chunks := s.Split(text)
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}
