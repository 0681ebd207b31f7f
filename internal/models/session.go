package models

import (
	"time"
)

// Session is one anonymous gallery visitor identity. Its existence gates the
// invitation access counter: the counter is bumped when the session is first
// created, repeat visits only refresh LastAccessedAt.
type Session struct {
	AnonymousUID   string    `gorm:"primary_key;size:64" json:"anonymous_uid"`
	InvitationID   string    `gorm:"size:64;index;not null" json:"invitation_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}
