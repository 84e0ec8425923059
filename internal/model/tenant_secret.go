package model

import "time"

// TenantSecret holds the tenant-owned provider API key (BYOK).
// At most one row per tenant. The raw key must never appear in logs
// or API responses; use MaskedKey for any display.
type TenantSecret struct {
	TenantID    string    `gorm:"type:char(36);primaryKey" json:"tenant_id"`
	ProviderKey string    `gorm:"size:256;not null" json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MaskedKey keeps the first 6 and last 4 characters visible.
// Keys too short to mask safely are replaced entirely.
func (s *TenantSecret) MaskedKey() string {
	return MaskKey(s.ProviderKey)
}

func MaskKey(key string) string {
	if len(key) <= 10 {
		return "**********"
	}
	masked := make([]byte, len(key))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked, key[:6])
	copy(masked[len(key)-4:], key[len(key)-4:])
	return string(masked)
}
