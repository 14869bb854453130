package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenSentenceDocument() (string, []string) {
	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d", i))
	}
	return strings.Join(sentences, ". ") + ".", sentences
}

func TestIndexSkipsFailedChunks(t *testing.T) {
	content, sentences := tenSentenceDocument()
	embedder := &fakeEmbedder{fail: map[string]bool{sentences[2]: true, sentences[5]: true}}
	store := &memoryPassages{}
	ix := NewIndexer(embedder, store, IndexerConfig{ChunkSize: 20})

	require.Len(t, Chunk(content, 20), 10)
	assert.NotPanics(t, func() { ix.Index(context.Background(), 7, content) })

	require.Len(t, store.rows, 8)
	var indexes []int
	for _, p := range store.rows {
		indexes = append(indexes, p.ChunkIndex)
		assert.Equal(t, uint(7), p.DocumentID)
		assert.Equal(t, 10, p.ChunkCount)
		assert.Equal(t, sentences[p.ChunkIndex], p.Content)
	}
	assert.Equal(t, []int{0, 1, 3, 4, 6, 7, 8, 9}, indexes)
	assert.Len(t, embedder.calls, 10)
}

func TestIndexSkipsEmptyVectorsAndStoreErrors(t *testing.T) {
	content, sentences := tenSentenceDocument()
	embedder := &fakeEmbedder{vectors: map[string][]float32{sentences[0]: {}}}
	store := &memoryPassages{failOn: map[int]bool{9: true}}
	ix := NewIndexer(embedder, store, IndexerConfig{ChunkSize: 20})

	var failed []int
	stored := ix.Run(context.Background(), 1, content, func(index, total int, err error) {
		assert.Equal(t, 10, total)
		if err != nil {
			failed = append(failed, index)
		}
	})

	assert.Equal(t, 8, stored)
	assert.Equal(t, []int{0, 9}, failed)
}

func TestIndexEmptyContent(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &memoryPassages{}
	ix := NewIndexer(embedder, store, IndexerConfig{})

	assert.Equal(t, 0, ix.Run(context.Background(), 1, "  ", nil))
	assert.Empty(t, embedder.calls)
	assert.Empty(t, store.rows)
}

func TestIndexCancelledContextStoresNothing(t *testing.T) {
	content, _ := tenSentenceDocument()
	store := &memoryPassages{}
	ix := NewIndexer(&fakeEmbedder{}, store, IndexerConfig{ChunkSize: 20, RatePerSecond: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, ix.Run(ctx, 1, content, nil))
	assert.Empty(t, store.rows)
}

func TestIndexRateLimited(t *testing.T) {
	content, _ := tenSentenceDocument()
	store := &memoryPassages{}
	ix := NewIndexer(&fakeEmbedder{}, store, IndexerConfig{ChunkSize: 20, RatePerSecond: 100, Burst: 1})

	start := time.Now()
	assert.Equal(t, 10, ix.Run(context.Background(), 1, content, nil))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
