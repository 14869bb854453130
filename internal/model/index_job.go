package model

import "time"

// IndexJob asks a worker to build passages for one document.
type IndexJob struct {
	ID         string    `json:"id"`
	DocumentID uint      `json:"document_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
