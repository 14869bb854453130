package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
)

// ContextEntry is one piece of context handed to text generation.
type ContextEntry struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// MarshalJSON writes a NaN similarity as null.
func (e ContextEntry) MarshalJSON() ([]byte, error) {
	var sim *float64
	if !math.IsNaN(e.Similarity) && !math.IsInf(e.Similarity, 0) {
		sim = &e.Similarity
	}
	return json.Marshal(struct {
		Content    string   `json:"content"`
		Similarity *float64 `json:"similarity"`
	}{Content: e.Content, Similarity: sim})
}

type RetrieverConfig struct {
	TopK          int
	FallbackChars int
	// Timeout bounds the ranked path; on expiry the fallback is used.
	Timeout time.Duration
}

type Retriever struct {
	embedder  Embedder
	passages  PassageStore
	documents DocumentSource
	cfg       RetrieverConfig
}

func NewRetriever(embedder Embedder, passages PassageStore, documents DocumentSource, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.FallbackChars <= 0 {
		cfg.FallbackChars = DefaultFallbackChars
	}
	return &Retriever{
		embedder:  embedder,
		passages:  passages,
		documents: documents,
		cfg:       cfg,
	}
}

// Retrieve returns up to topK passages ranked by similarity to query. When no
// passage can be ranked it returns a single block of truncated document text
// with similarity 1. The result is empty only when no document exists.
// documentIDs must already be filtered to the caller's documents.
func (r *Retriever) Retrieve(ctx context.Context, query string, documentIDs []uint, topK int) []ContextEntry {
	if len(documentIDs) == 0 {
		return []ContextEntry{}
	}
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	if entries := r.ranked(ctx, query, documentIDs, topK); len(entries) > 0 {
		return entries
	}
	return r.fallback(ctx, documentIDs)
}

func (r *Retriever) ranked(ctx context.Context, query string, documentIDs []uint, topK int) []ContextEntry {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	passages, err := r.passages.ListByDocumentIDs(ctx, documentIDs)
	if err != nil {
		log.Printf("retrieve: load passages failed: %v", err)
		return nil
	}
	if len(passages) == 0 {
		return nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("retrieve: embed query failed, using fallback: %v", err)
		return nil
	}

	scored := Rank(queryVec, passages)
	if len(scored) > topK {
		scored = scored[:topK]
	}
	entries := make([]ContextEntry, len(scored))
	for i, s := range scored {
		entries[i] = ContextEntry{Content: s.Passage.Content, Similarity: s.Score}
	}
	return entries
}

func (r *Retriever) fallback(ctx context.Context, documentIDs []uint) []ContextEntry {
	docs, err := r.documents.ListByIDs(ctx, documentIDs)
	if err != nil {
		log.Printf("retrieve: load documents for fallback failed: %v", err)
		return []ContextEntry{}
	}
	if len(docs) == 0 {
		return []ContextEntry{}
	}

	byID := make(map[uint]string, len(docs))
	for _, d := range docs {
		byID[d.ID] = d.Content
	}

	var blocks []string
	seen := make(map[uint]bool, len(documentIDs))
	for _, id := range documentIDs {
		content, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		blocks = append(blocks, fmt.Sprintf("[%d] %s", len(blocks)+1, Truncate(content, r.cfg.FallbackChars)))
	}
	return []ContextEntry{{Content: strings.Join(blocks, "\n\n"), Similarity: 1.0}}
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
