package model

import "time"

// Document is an uploaded study material together with its extracted text.
// Content is never rewritten after extraction; Summary is filled lazily.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Filename    string    `gorm:"size:256" json:"filename"`
	MIMEType    string    `gorm:"size:128" json:"mime_type"`
	FileSize    int64     `json:"file_size"`
	Subject     string    `gorm:"size:128" json:"subject,omitempty"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	Content     string    `gorm:"not null" json:"-"`
	Summary     string    `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
