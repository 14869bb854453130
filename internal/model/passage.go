package model

import "time"

// Passage is one embedded chunk of a document.
type Passage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	Content    string    `gorm:"not null" json:"content"`
	Embedding  Vector    `gorm:"not null" json:"-"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	ChunkCount int       `gorm:"not null" json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the stored vector as a plain slice.
func (p *Passage) EmbeddingVector() []float32 {
	return p.Embedding.Slice()
}

// SetEmbedding replaces the stored vector.
func (p *Passage) SetEmbedding(vec []float32) {
	p.Embedding = NewVector(vec)
}
