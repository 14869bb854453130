package retrieval

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const sentenceJoiner = ". "

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// Sentences splits text on runs of terminal punctuation and drops empty pieces.
func Sentences(text string) []string {
	parts := sentenceTerminators.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunk groups whole sentences into chunks of at most maxChunkSize runes.
// A sentence longer than the limit becomes a chunk of its own.
func Chunk(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}

	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)
	for _, sentence := range Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		if bufLen > 0 && bufLen+len(sentenceJoiner)+n > maxChunkSize {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufLen = 0
		}
		if bufLen > 0 {
			buf.WriteString(sentenceJoiner)
			bufLen += len(sentenceJoiner)
		}
		buf.WriteString(sentence)
		bufLen += n
	}
	if bufLen > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
