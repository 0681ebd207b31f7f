package models

import (
	"time"
)

// Like records one recipient liking one image. The primary key is derived
// from (userID, imageID), which makes a duplicate like a primary-key
// conflict instead of a second row.
type Like struct {
	ID        string    `gorm:"primary_key;size:128" json:"id"`
	UserID    string    `gorm:"size:64;index;not null" json:"user_id"`
	ImageID   string    `gorm:"size:64;index;not null" json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeID builds the deterministic identifier for a (user, image) pair.
func LikeID(userID, imageID string) string {
	return userID + "_" + imageID
}
