package app

import (
	"context"

	"studymate/internal/model"
	"studymate/internal/retrieval"
)

// Completer turns a prompt pair into a completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, documentIDs []uint, topK int) []retrieval.ContextEntry
}

// IndexDispatcher starts indexing of a document without waiting for it.
type IndexDispatcher interface {
	Dispatch(ctx context.Context, documentID uint) error
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, v any) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.Message) error
	Invalidate(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
	Delete(ctx context.Context, conversationID uint) error
}
