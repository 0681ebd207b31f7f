package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusDelivered = "delivered"
	ProjectStatusArchived  = "archived"
)

// Project is a shooting delivered to one client. ImageCount mirrors the
// number of live images referencing this project and is only ever mutated
// inside the same transaction as the image write itself.
type Project struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name             string     `gorm:"size:255;not null" json:"name"`
	ClientName       string     `gorm:"size:255;not null" json:"client_name"`
	ClientEmail      string     `gorm:"size:255" json:"client_email,omitempty"`
	ShootingDate     *time.Time `json:"shooting_date,omitempty"`
	ShootingLocation string     `gorm:"size:255" json:"shooting_location,omitempty"`
	Description      string     `gorm:"size:1000" json:"description,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CoverImageURL    string     `json:"cover_image_url,omitempty"`
	ImageCount       int        `gorm:"not null;default:0" json:"image_count"`
	CreatedBy        uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	return nil
}

// IsValidProjectStatus reports whether s is one of the known statuses.
func IsValidProjectStatus(s string) bool {
	return s == ProjectStatusActive || s == ProjectStatusDelivered || s == ProjectStatusArchived
}
