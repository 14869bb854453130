package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studymate/internal/model"
	"studymate/internal/platform/database"
	"studymate/internal/repository"
	"studymate/internal/retrieval"
)

type repos struct {
	db            *gorm.DB
	documents     *repository.DocumentRepository
	passages      *repository.PassageRepository
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
	questions     *repository.QuestionRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db, err := database.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return repos{
		db:            db,
		documents:     repository.NewDocumentRepository(db),
		passages:      repository.NewPassageRepository(db),
		conversations: repository.NewConversationRepository(db),
		messages:      repository.NewMessageRepository(db),
		questions:     repository.NewQuestionRepository(db),
	}
}

func (r repos) seedDocument(t *testing.T, userID uint, title, content string) *model.Document {
	t.Helper()
	doc := &model.Document{UserID: userID, Title: title, Content: content}
	require.NoError(t, r.documents.Create(context.Background(), doc))
	return doc
}

type promptCall struct {
	system string
	user   string
}

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []promptCall
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, promptCall{system: systemPrompt, user: userPrompt})
	return f.reply, f.err
}

type fakeDispatcher struct {
	ids []uint
	err error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, documentID uint) error {
	f.ids = append(f.ids, documentID)
	return f.err
}

type fakePublisher struct {
	messages []model.Message
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, v any) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, v.(model.Message))
	return nil
}

type staticRetriever struct {
	entries []retrieval.ContextEntry
	gotIDs  []uint
}

func (s *staticRetriever) Retrieve(_ context.Context, _ string, ids []uint, _ int) []retrieval.ContextEntry {
	s.gotIDs = ids
	return s.entries
}

type downEmbedder struct{}

func (downEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

// memoryHistoryCache mirrors the redis history cache: Invalidate drops the
// entry and marks the conversation dirty until settle is called, the way the
// dirty key expires in redis.
type memoryHistoryCache struct {
	mu      sync.Mutex
	history map[uint][]model.Message
	dirty   map[uint]bool
}

func newMemoryHistoryCache() *memoryHistoryCache {
	return &memoryHistoryCache{history: map[uint][]model.Message{}, dirty: map[uint]bool{}}
}

func (c *memoryHistoryCache) GetHistory(_ context.Context, id uint) ([]model.Message, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages, ok := c.history[id]
	return messages, ok, nil
}

func (c *memoryHistoryCache) SetHistory(_ context.Context, id uint, messages []model.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[id] = append([]model.Message(nil), messages...)
	return nil
}

func (c *memoryHistoryCache) Invalidate(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, id)
	c.dirty[id] = true
	return nil
}

func (c *memoryHistoryCache) IsDirty(_ context.Context, id uint) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty[id], nil
}

func (c *memoryHistoryCache) Delete(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, id)
	delete(c.dirty, id)
	return nil
}

func (c *memoryHistoryCache) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = map[uint]bool{}
}

func (c *memoryHistoryCache) cached(id uint) ([]model.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages, ok := c.history[id]
	return messages, ok
}
