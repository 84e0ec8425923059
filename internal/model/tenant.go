package model

import "time"

// Tenant is the isolation boundary: every bot, document, fragment,
// secret and chat message hangs off exactly one tenant. Rows are
// created by the admin surface; this service only reads them.
type Tenant struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
