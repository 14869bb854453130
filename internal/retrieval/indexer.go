package retrieval

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/time/rate"

	"studymate/internal/model"
)

var errEmptyEmbedding = errors.New("empty embedding")

type IndexerConfig struct {
	ChunkSize    int
	EmbedTimeout time.Duration
	// RatePerSecond caps embedding calls; zero means unlimited.
	RatePerSecond float64
	Burst         int
}

// Indexer chunks a document, embeds each chunk and stores the results.
// Failures are logged per chunk and never reach the caller.
type Indexer struct {
	embedder Embedder
	store    PassageStore
	cfg      IndexerConfig
	limiter  *rate.Limiter
}

func NewIndexer(embedder Embedder, store PassageStore, cfg IndexerConfig) *Indexer {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
	}
}

// ChunkFunc observes the outcome of one chunk. err is nil when the passage
// was stored.
type ChunkFunc func(index, total int, err error)

// Index builds passages for a document. Whatever subset of chunks succeeds
// is kept.
func (ix *Indexer) Index(ctx context.Context, documentID uint, content string) {
	ix.Run(ctx, documentID, content, nil)
}

// Run is Index with a per-chunk callback; it returns the number of stored
// passages.
func (ix *Indexer) Run(ctx context.Context, documentID uint, content string, onChunk ChunkFunc) int {
	chunks := Chunk(content, ix.cfg.ChunkSize)
	total := len(chunks)
	if total == 0 {
		log.Printf("index document %d: no text to index", documentID)
		return 0
	}

	stored := 0
	for i, text := range chunks {
		err := ix.indexChunk(ctx, documentID, text, i, total)
		if err != nil {
			log.Printf("index document %d: chunk %d/%d skipped: %v", documentID, i+1, total, err)
		} else {
			stored++
		}
		if onChunk != nil {
			onChunk(i, total, err)
		}
	}

	if stored == 0 {
		log.Printf("index document %d: no passages stored, queries will use fallback context", documentID)
	} else {
		log.Printf("index document %d: stored %d/%d passages", documentID, stored, total)
	}
	return stored
}

func (ix *Indexer) indexChunk(ctx context.Context, documentID uint, text string, index, total int) error {
	if err := ix.limiter.Wait(ctx); err != nil {
		return err
	}

	embedCtx := ctx
	if ix.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, ix.cfg.EmbedTimeout)
		defer cancel()
	}
	vec, err := ix.embedder.Embed(embedCtx, text)
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		return errEmptyEmbedding
	}

	passage := &model.Passage{
		DocumentID: documentID,
		Content:    text,
		ChunkIndex: index,
		ChunkCount: total,
	}
	passage.SetEmbedding(vec)
	return ix.store.Create(ctx, passage)
}
