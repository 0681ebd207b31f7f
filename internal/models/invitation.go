package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Derived invitation status. Not stored: computed from IsActive and ExpiresAt.
const (
	InvitationStatusActive   = "active"
	InvitationStatusInactive = "inactive"
	InvitationStatusExpired  = "expired"
)

// Invitation is a token-addressable, expiring, revocable grant of view/like
// access to a fixed subset of a project's images. Token is the only public
// identifier a gallery recipient ever holds.
type Invitation struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Token          string     `gorm:"size:21;uniqueIndex;not null" json:"token"`
	ProjectID      *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	ClientName     string     `gorm:"size:255;not null" json:"client_name"`
	ClientEmail    string     `gorm:"size:255" json:"client_email,omitempty"`
	CreatedBy      uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	ImageIDs       []string   `gorm:"serializer:json;not null" json:"image_ids"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	AccessCount    int        `gorm:"not null;default:0" json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Status derives the invitation status at the given instant. Deactivation
// wins over expiry.
func (i *Invitation) Status(now time.Time) string {
	if !i.IsActive {
		return InvitationStatusInactive
	}
	if now.After(i.ExpiresAt) {
		return InvitationStatusExpired
	}
	return InvitationStatusActive
}

// ContainsImage reports whether the grant covers the given image id.
func (i *Invitation) ContainsImage(imageID string) bool {
	for _, id := range i.ImageIDs {
		if id == imageID {
			return true
		}
	}
	return false
}
