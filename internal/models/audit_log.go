package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog represents an admin action log entry
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AdminID    uuid.UUID `gorm:"type:uuid;not null" json:"admin_id"`
	Admin      *User     `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action     string    `gorm:"type:varchar(100);not null" json:"action"`     // e.g., "delete_project", "revoke_invitation"
	TargetType string    `gorm:"type:varchar(50);not null" json:"target_type"` // e.g., "project", "image", "invitation"
	TargetID   string    `gorm:"type:varchar(64);not null" json:"target_id"`
	Details    string    `gorm:"type:text" json:"details,omitempty"` // JSON string with additional info
	IPAddress  string    `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent  string    `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
