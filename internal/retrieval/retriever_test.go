package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/model"
)

func TestRetrieveNoDocumentIDs(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := NewRetriever(embedder, &memoryPassages{}, &memoryDocuments{}, RetrieverConfig{})

	entries := r.Retrieve(context.Background(), "anything", nil, 5)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Empty(t, embedder.calls)
}

func TestRetrieveRanksPassages(t *testing.T) {
	store := &memoryPassages{}
	store.add(1, "photosynthesis", []float32{1, 0, 0})
	store.add(1, "mitosis", []float32{0, 1, 0})
	store.add(2, "chlorophyll", []float32{0.9, 0.1, 0})
	store.add(2, "unrelated", []float32{0, 0, 1})
	store.add(3, "other user", []float32{1, 0, 0})

	embedder := &fakeEmbedder{vectors: map[string][]float32{"plants": {1, 0, 0}}}
	r := NewRetriever(embedder, store, &memoryDocuments{}, RetrieverConfig{})

	entries := r.Retrieve(context.Background(), "plants", []uint{1, 2}, 3)
	require.Len(t, entries, 3)
	assert.Equal(t, "photosynthesis", entries[0].Content)
	assert.Equal(t, "chlorophyll", entries[1].Content)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Similarity, entries[i].Similarity)
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	store := &memoryPassages{}
	for i := 0; i < 8; i++ {
		store.add(1, "passage", []float32{1, float32(i)})
	}
	embedder := &fakeEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	r := NewRetriever(embedder, store, &memoryDocuments{}, RetrieverConfig{})

	assert.Len(t, r.Retrieve(context.Background(), "q", []uint{1}, 0), DefaultTopK)
	assert.Len(t, r.Retrieve(context.Background(), "q", []uint{1}, 20), 8)
}

func TestRetrieveFallbackWithoutPassages(t *testing.T) {
	docs := &memoryDocuments{docs: []model.Document{
		{ID: 1, Content: "Cell biology notes."},
		{ID: 2, Content: "History of Rome."},
	}}
	embedder := &fakeEmbedder{}
	r := NewRetriever(embedder, &memoryPassages{}, docs, RetrieverConfig{})

	entries := r.Retrieve(context.Background(), "question", []uint{2, 1}, 5)
	require.Len(t, entries, 1)
	assert.Equal(t, 1.0, entries[0].Similarity)
	assert.Equal(t, "[1] History of Rome.\n\n[2] Cell biology notes.", entries[0].Content)
	assert.Empty(t, embedder.calls)
}

func TestRetrieveFallbackTruncates(t *testing.T) {
	long := strings.Repeat("é", 2990) + strings.Repeat("x", 100)
	docs := &memoryDocuments{docs: []model.Document{{ID: 1, Content: long}}}
	r := NewRetriever(&fakeEmbedder{}, &memoryPassages{}, docs, RetrieverConfig{})

	entries := r.Retrieve(context.Background(), "q", []uint{1}, 5)
	require.Len(t, entries, 1)
	want := "[1] " + strings.Repeat("é", 2990) + strings.Repeat("x", 10)
	assert.Equal(t, want, entries[0].Content)
}

func TestRetrieveFallbackWhenEmbeddingFails(t *testing.T) {
	store := &memoryPassages{}
	store.add(1, "indexed passage", []float32{1, 0})
	docs := &memoryDocuments{docs: []model.Document{{ID: 1, Content: "Full text."}}}
	embedder := &fakeEmbedder{fail: map[string]bool{"q": true}}
	r := NewRetriever(embedder, store, docs, RetrieverConfig{})

	entries := r.Retrieve(context.Background(), "q", []uint{1}, 5)
	require.Len(t, entries, 1)
	assert.Equal(t, "[1] Full text.", entries[0].Content)
	assert.Equal(t, 1.0, entries[0].Similarity)
}

func TestRetrieveFallbackWhenPassageStoreFails(t *testing.T) {
	store := &memoryPassages{listError: errors.New("db down")}
	docs := &memoryDocuments{docs: []model.Document{{ID: 1, Content: "Full text."}}}
	r := NewRetriever(&fakeEmbedder{}, store, docs, RetrieverConfig{})

	entries := r.Retrieve(context.Background(), "q", []uint{1}, 5)
	require.Len(t, entries, 1)
	assert.Equal(t, "[1] Full text.", entries[0].Content)
}

func TestRetrieveNoDocumentsFound(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &memoryPassages{}, &memoryDocuments{}, RetrieverConfig{})
	assert.Empty(t, r.Retrieve(context.Background(), "q", []uint{42}, 5))

	failing := NewRetriever(&fakeEmbedder{}, &memoryPassages{}, &memoryDocuments{err: errors.New("db down")}, RetrieverConfig{})
	assert.Empty(t, failing.Retrieve(context.Background(), "q", []uint{42}, 5))
}

func TestContextEntryJSONWithNaN(t *testing.T) {
	raw, err := json.Marshal([]ContextEntry{
		{Content: "a", Similarity: 0.5},
		{Content: "b", Similarity: math.NaN()},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"content":"a","similarity":0.5},{"content":"b","similarity":null}]`, string(raw))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "héllo", Truncate("héllo", 10))
	assert.Equal(t, "", Truncate("héllo", 0))
}
