package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one append-only transcript row. SessionID is an
// opaque thread identifier supplied by the caller (the widget mints
// one per visitor); messages are never mutated after creation.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  string    `gorm:"type:char(36);not null;index" json:"tenant_id"`
	BotID     string    `gorm:"type:char(36);not null;index" json:"bot_id"`
	SessionID string    `gorm:"size:64;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
