package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPreparer_StripsMarkupButKeepsText(t *testing.T) {
	p := NewTextPreparer()

	prepared, err := p.Prepare("# Heading\n\nSome **bold** text with <script>alert(1)</script> inline.")
	require.NoError(t, err)

	assert.Contains(t, prepared, "Heading")
	assert.Contains(t, prepared, "bold")
	assert.NotContains(t, prepared, "<script>")
	assert.NotContains(t, prepared, "**")
	assert.NotContains(t, prepared, "#")
}

// Cosmetic markup edits must not change the fingerprint: only visible text
// drives reindexing cost.
func TestTextPreparer_FingerprintStableAcrossMarkup(t *testing.T) {
	p := NewTextPreparer()

	a, err := p.Prepare("Hello **world**")
	require.NoError(t, err)
	b, err := p.Prepare("Hello __world__")
	require.NoError(t, err)

	assert.Equal(t, p.Fingerprint(a), p.Fingerprint(b))
}

func TestTextPreparer_FingerprintChangesWithContent(t *testing.T) {
	p := NewTextPreparer()

	a, err := p.Prepare("Hello world")
	require.NoError(t, err)
	b, err := p.Prepare("Hello there")
	require.NoError(t, err)

	assert.NotEqual(t, p.Fingerprint(a), p.Fingerprint(b))
}

func TestTextPreparer_Chunk(t *testing.T) {
	p := NewTextPreparer()

	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Nil(t, p.Chunk("", 512, 20))
	})

	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := p.Chunk("short", 512, 20)
		assert.Equal(t, []string{"short"}, chunks)
	})

	t.Run("long text overlaps between chunks", func(t *testing.T) {
		text := strings.Repeat("abcdefghij", 30) // 300 runes
		chunks := p.Chunk(text, 100, 20)

		require.Greater(t, len(chunks), 2)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 100)
		}
		// 20% overlap: each chunk starts 80 runes after the previous one.
		assert.Equal(t, text[80:180], chunks[1])
	})

	t.Run("full coverage with no gaps", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		chunks := p.Chunk(text, 100, 0)
		var total int
		for _, c := range chunks {
			total += len(c)
		}
		assert.GreaterOrEqual(t, total, 250)
	})
}
