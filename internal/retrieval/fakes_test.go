package retrieval

import (
	"context"
	"errors"
	"sync"

	"studymate/internal/model"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	fail    map[string]bool
	calls   []string
	mu      sync.Mutex
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.fail[text] {
		return nil, errors.New("embedding service unavailable")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

type memoryPassages struct {
	mu        sync.Mutex
	nextID    uint
	rows      []model.Passage
	failOn    map[int]bool
	listError error
}

func (m *memoryPassages) Create(_ context.Context, p *model.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[p.ChunkIndex] {
		return errors.New("insert failed")
	}
	m.nextID++
	p.ID = m.nextID
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memoryPassages) ListByDocumentIDs(_ context.Context, ids []uint) ([]model.Passage, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Passage
	for _, p := range m.rows {
		if want[p.DocumentID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPassages) add(documentID uint, content string, vec []float32) {
	p := &model.Passage{DocumentID: documentID, Content: content}
	p.SetEmbedding(vec)
	_ = m.Create(context.Background(), p)
}

type memoryDocuments struct {
	docs []model.Document
	err  error
}

func (m *memoryDocuments) ListByIDs(_ context.Context, ids []uint) ([]model.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Document
	// reverse order so callers cannot rely on store order
	for i := len(m.docs) - 1; i >= 0; i-- {
		if want[m.docs[i].ID] {
			out = append(out, m.docs[i])
		}
	}
	return out, nil
}
