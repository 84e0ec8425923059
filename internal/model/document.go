package model

import "time"

// Document ingestion lifecycle. A document moves
// uploaded -> processing -> processed | error; a retry from error or
// a re-ingest from processed re-enters processing.
const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusError      = "error"
)

// Document is an uploaded knowledge file scoped to one tenant and one
// bot. Content holds the extracted plain text (truncated to protect
// storage); StoragePath locates the raw bytes in blob storage.
type Document struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	TenantID    string    `gorm:"type:char(36);not null;index" json:"tenant_id"`
	BotID       string    `gorm:"type:char(36);not null;index" json:"bot_id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	StoragePath string    `gorm:"size:512" json:"storage_path"`
	Content     string    `gorm:"type:mediumtext" json:"-"`
	Status      string    `gorm:"size:16;not null;default:uploaded;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
