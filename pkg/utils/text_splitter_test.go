package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SplitText("  hello \n", 1000, 200))
	assert.Nil(t, SplitText("   ", 1000, 200))
}

func TestSplitTextRespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 600)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ") // 2999 runes

	chunks := SplitText(text, 1000, 200)
	require.Greater(t, len(chunks), 3)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000)
		// breaks land on spaces, never inside a word
		assert.False(t, strings.HasPrefix(c, "ord"), c[:10])
	}
	// consecutive chunks share text
	tail := chunks[0][len(chunks[0])-50:]
	assert.Contains(t, chunks[1], strings.TrimSpace(tail))
}

func TestSplitTextPrefersParagraphs(t *testing.T) {
	para := strings.Repeat("a", 70)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := SplitText(text, 100, 0)
	assert.Equal(t, []string{para, para, para}, chunks)
}

func TestSplitTextHandlesMultibyte(t *testing.T) {
	text := strings.Repeat("é", 250)
	chunks := SplitText(text, 100, 20)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
	assert.Len(t, chunks, 3)
}

func TestSplitTextBadOverlapFallsBack(t *testing.T) {
	chunks := SplitText(strings.Repeat("x", 30), 10, 50)
	assert.Len(t, chunks, 3)
}
