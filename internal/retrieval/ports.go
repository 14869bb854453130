// Package retrieval turns document text into embedded passages and selects
// the passages most relevant to a query.
package retrieval

import (
	"context"

	"studymate/internal/model"
)

const (
	DefaultChunkSize     = 1000
	DefaultTopK          = 5
	DefaultFallbackChars = 3000
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PassageStore persists and loads embedded passages.
type PassageStore interface {
	Create(ctx context.Context, passage *model.Passage) error
	ListByDocumentIDs(ctx context.Context, documentIDs []uint) ([]model.Passage, error)
}

// DocumentSource loads documents with their extracted content.
type DocumentSource interface {
	ListByIDs(ctx context.Context, ids []uint) ([]model.Document, error)
}
