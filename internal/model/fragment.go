package model

import (
	"encoding/json"
	"time"
)

// Fragment is a bounded slice of a document's extracted text plus its
// embedding vector, the unit of retrieval. Tenant and bot IDs are
// denormalized so search never has to join back through documents for
// scoping. The embedding is stored as a JSON array of float32 for
// portability across relational backends.
type Fragment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   string    `gorm:"type:char(36);not null;index" json:"tenant_id"`
	BotID      string    `gorm:"type:char(36);not null;index" json:"bot_id"`
	DocumentID string    `gorm:"type:char(36);not null;index" json:"document_id"`
	SeqIndex   int       `gorm:"not null" json:"seq_index"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding; empty on parse error.
func (f *Fragment) EmbeddingVector() []float32 {
	if f.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(f.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (f *Fragment) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		f.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	f.Embedding = string(b)
}
