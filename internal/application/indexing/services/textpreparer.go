package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/text/unicode/norm"
)

// TextPreparer turns a raw forum post body into the plain text that gets
// chunked, fingerprinted and embedded. Markdown is rendered first so that
// fingerprints cover visible text, not markup; the fingerprint of a post is
// therefore stable across cosmetic markup edits that do not change what
// readers see.
type TextPreparer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func NewTextPreparer() *TextPreparer {
	return &TextPreparer{
		markdown:  goldmark.New(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Prepare renders, strips and normalizes the body to plain text.
func (p *TextPreparer) Prepare(body string) (string, error) {
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	text := p.sanitizer.Sanitize(buf.String())
	text = norm.NFC.String(text)
	return collapseWhitespace(text), nil
}

// Fingerprint hashes the prepared text. Identical fingerprints mean the item
// does not need reindexing.
func (p *TextPreparer) Fingerprint(prepared string) string {
	sum := sha256.Sum256([]byte(prepared))
	return hex.EncodeToString(sum[:])
}

// Chunk splits prepared text into rune-bounded chunks of at most chunkSize
// with the given overlap between consecutive chunks. Empty text yields no
// chunks.
func (p *TextPreparer) Chunk(prepared string, chunkSize, overlapPercent int) []string {
	if prepared == "" || chunkSize <= 0 {
		return nil
	}
	runes := []rune(prepared)
	if len(runes) <= chunkSize {
		return []string{prepared}
	}

	step := chunkSize * (100 - overlapPercent) / 100
	if step <= 0 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
