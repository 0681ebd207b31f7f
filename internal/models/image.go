package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is an uploaded photo. URL and StoragePath always refer to the same
// blob-store object; LikeCount mirrors the live Like rows for this image.
type Image struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ProjectID   *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	URL         string     `gorm:"not null" json:"url"`
	StoragePath string     `gorm:"not null" json:"storage_path"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"size:1000" json:"description,omitempty"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	LikeCount   int        `gorm:"not null;default:0" json:"like_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// DownloadName returns the filename used for single-image downloads.
func (i *Image) DownloadName(ext string) string {
	name := i.Title
	if name == "" {
		name = i.ID.String()
	}
	return name + "." + ext
}
