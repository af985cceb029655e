package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := New(1000, 200)
	chunks := s.Split("The capital of France is Paris.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "The capital of France is Paris.", chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	s := New(1000, 200)
	assert.Nil(t, s.Split(""))
}

func TestSplitRespectsMaxSize(t *testing.T) {
	s := New(50, 10)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 50, "chunk %d exceeds max size", i)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("a", 30)
	para2 := strings.Repeat("b", 30)
	text := para1 + "\n\n" + para2
	s := New(50, 5)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	// The first cut should land on the paragraph break, not mid-word.
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
}

func TestSplitReconstructsOriginal(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"plain words", strings.Repeat("the quick brown fox jumps over the lazy dog ", 30), 100, 20},
		{"paragraphs", strings.Repeat("first paragraph here.\n\nsecond paragraph follows.\n\n", 20), 80, 15},
		{"no separators", strings.Repeat("x", 500), 64, 16},
		{"unicode", strings.Repeat("日本語のテキストです。", 100), 70, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.size, tt.overlap)
			chunks := s.Split(tt.text)
			require.NotEmpty(t, chunks)

			var rebuilt strings.Builder
			rebuilt.WriteString(chunks[0])
			for _, chunk := range chunks[1:] {
				runes := []rune(chunk)
				require.Greater(t, len(runes), tt.overlap)
				rebuilt.WriteString(string(runes[tt.overlap:]))
			}
			assert.Equal(t, tt.text, rebuilt.String())
		})
	}
}

func TestSplitOverlapCarriesPreviousTail(t *testing.T) {
	s := New(40, 8)
	text := strings.Repeat("overlap test content words here ", 10)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-8:])
		head := string(cur[:8])
		assert.Equal(t, tail, head, "chunk %d does not start with previous tail", i)
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := New(60, 12)
	text := strings.Repeat("deterministic splitting of the same input text ", 25)
	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}
