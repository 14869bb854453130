package model

import (
	"encoding/json"
	"time"
)

// Question is a generated multiple-choice practice question.
// Options are kept as a JSON array so every supported dialect can store them.
type Question struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DocumentID uint      `gorm:"index" json:"document_id"`
	Question   string    `gorm:"not null" json:"question"`
	Options    string    `gorm:"not null" json:"-"`
	Answer     string    `gorm:"size:512;not null" json:"answer"`
	Difficulty string    `gorm:"size:16;not null" json:"difficulty"`
	Subject    string    `gorm:"size:128" json:"subject,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OptionList returns the parsed options; empty on parse error.
func (q *Question) OptionList() []string {
	if q.Options == "" {
		return nil
	}
	var opts []string
	_ = json.Unmarshal([]byte(q.Options), &opts)
	return opts
}

// SetOptions stores the options as JSON.
func (q *Question) SetOptions(opts []string) {
	if opts == nil {
		opts = []string{}
	}
	b, _ := json.Marshal(opts)
	q.Options = string(b)
}

// MarshalJSON exposes options as an array rather than the stored text.
func (q Question) MarshalJSON() ([]byte, error) {
	type plain Question
	return json.Marshal(struct {
		plain
		Options []string `json:"options"`
	}{plain: plain(q), Options: q.OptionList()})
}
