package model

import "time"

const DefaultBotModel = "gpt-4o-mini"

// Bot is a configured conversational persona owned by one tenant.
type Bot struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	TenantID     string    `gorm:"type:char(36);not null;index" json:"tenant_id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	SystemPrompt string    `gorm:"type:text" json:"system_prompt"`
	Model        string    `gorm:"size:64" json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectiveModel falls back to the default generation model when the
// bot has none configured.
func (b *Bot) EffectiveModel() string {
	if b.Model == "" {
		return DefaultBotModel
	}
	return b.Model
}

// EffectiveSystemPrompt falls back to a neutral assistant prompt.
func (b *Bot) EffectiveSystemPrompt() string {
	if b.SystemPrompt == "" {
		return "You are a helpful assistant."
	}
	return b.SystemPrompt
}
