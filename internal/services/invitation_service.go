package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/models"
	"github.com/fotoatelier/backend/pkg/token"
	"github.com/fotoatelier/backend/pkg/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewInvitationService(db *gorm.DB, cfg *config.Config) *InvitationService {
	return &InvitationService{db: db, cfg: cfg}
}

// CreateInvitationParams carries the admin form input for a new invitation.
type CreateInvitationParams struct {
	ProjectID   *uuid.UUID
	ClientName  string
	ClientEmail string
	CreatedBy   uuid.UUID
	ImageIDs    []string
	ExpiresAt   time.Time
}

// ValidationResult is the outcome of checking a resolved invitation.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"` // "deactivated" | "expired"
}

// CreateInvitation creates a new invitation with a fresh gallery token.
// The image selection must be non-empty and the client name non-blank;
// nothing is persisted otherwise.
func (s *InvitationService) CreateInvitation(params CreateInvitationParams) (*models.Invitation, error) {
	if len(params.ImageIDs) == 0 {
		return nil, newValidationError("image selection must not be empty")
	}
	if validation.IsBlank(params.ClientName) {
		return nil, newValidationError("client name is required")
	}
	if params.ClientEmail != "" && !validation.ValidateEmail(params.ClientEmail) {
		return nil, newValidationError("invalid client email")
	}

	tok, err := token.New()
	if err != nil {
		return nil, err
	}

	invitation := &models.Invitation{
		Token:       tok,
		ProjectID:   params.ProjectID,
		ClientName:  validation.SanitizeString(params.ClientName),
		ClientEmail: params.ClientEmail,
		CreatedBy:   params.CreatedBy,
		ImageIDs:    params.ImageIDs,
		ExpiresAt:   params.ExpiresAt,
		IsActive:    true,
		AccessCount: 0,
	}
	if err := s.db.Create(invitation).Error; err != nil {
		return nil, err
	}
	return invitation, nil
}

// GetInvitationByID retrieves an invitation by ID
func (s *InvitationService) GetInvitationByID(invitationID uuid.UUID) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := s.db.First(&invitation, "id = ?", invitationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invitation %s: %w", invitationID, ErrNotFound)
		}
		return nil, err
	}
	return &invitation, nil
}

// ResolveByToken looks an invitation up by its public gallery token. A token
// that was never issued resolves to ErrNotFound and nothing else.
func (s *InvitationService) ResolveByToken(tok string) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := s.db.First(&invitation, "token = ?", tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invitation token: %w", ErrNotFound)
		}
		return nil, err
	}
	return &invitation, nil
}

// Validate checks a resolved invitation at the given instant. Deactivation
// is reported before expiry.
func (s *InvitationService) Validate(invitation *models.Invitation, now time.Time) ValidationResult {
	if !invitation.IsActive {
		return ValidationResult{Valid: false, Reason: "deactivated"}
	}
	if now.After(invitation.ExpiresAt) {
		return ValidationResult{Valid: false, Reason: "expired"}
	}
	return ValidationResult{Valid: true}
}

// Touch records one recipient access: accessCount +1, lastAccessedAt = now.
// Callers treat failures as best-effort telemetry, never as an access gate.
func (s *InvitationService) Touch(invitationID uuid.UUID) error {
	now := time.Now().UTC()
	return s.db.Model(&models.Invitation{}).Where("id = ?", invitationID).Updates(map[string]interface{}{
		"access_count":     gorm.Expr("access_count + ?", 1),
		"last_accessed_at": now,
		"updated_at":       now,
	}).Error
}

// UpdateInvitationParams carries partial invitation updates; nil fields are
// left untouched.
type UpdateInvitationParams struct {
	ClientName  *string
	ClientEmail *string
	ImageIDs    []string
	ExpiresAt   *time.Time
	IsActive    *bool
}

// UpdateInvitation applies partial updates to an invitation
func (s *InvitationService) UpdateInvitation(invitationID uuid.UUID, params UpdateInvitationParams) error {
	var invitation models.Invitation
	if err := s.db.First(&invitation, "id = ?", invitationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invitation %s: %w", invitationID, ErrNotFound)
		}
		return err
	}

	if params.ClientName != nil {
		if validation.IsBlank(*params.ClientName) {
			return newValidationError("client name is required")
		}
		invitation.ClientName = *params.ClientName
	}
	if params.ClientEmail != nil {
		invitation.ClientEmail = *params.ClientEmail
	}
	if params.ImageIDs != nil {
		if len(params.ImageIDs) == 0 {
			return newValidationError("image selection must not be empty")
		}
		invitation.ImageIDs = params.ImageIDs
	}
	if params.ExpiresAt != nil {
		invitation.ExpiresAt = *params.ExpiresAt
	}
	if params.IsActive != nil {
		invitation.IsActive = *params.IsActive
	}

	return s.db.Save(&invitation).Error
}

// Revoke deactivates an invitation; expiresAt and accessCount are untouched
func (s *InvitationService) Revoke(invitationID uuid.UUID) error {
	return s.setActive(invitationID, false)
}

// Reactivate re-enables a revoked invitation
func (s *InvitationService) Reactivate(invitationID uuid.UUID) error {
	return s.setActive(invitationID, true)
}

func (s *InvitationService) setActive(invitationID uuid.UUID, active bool) error {
	result := s.db.Model(&models.Invitation{}).Where("id = ?", invitationID).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("invitation %s: %w", invitationID, ErrNotFound)
	}
	return nil
}

// DeleteInvitation removes an invitation permanently
func (s *InvitationService) DeleteInvitation(invitationID uuid.UUID) error {
	result := s.db.Delete(&models.Invitation{}, "id = ?", invitationID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("invitation %s: %w", invitationID, ErrNotFound)
	}
	return nil
}

// GetInvitationsByProject returns a project's invitations, newest first
func (s *InvitationService) GetInvitationsByProject(projectID uuid.UUID) ([]models.Invitation, error) {
	var invitations []models.Invitation
	if err := s.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// GetInvitations returns all invitations with pagination
func (s *InvitationService) GetInvitations(limit, offset int) ([]models.Invitation, int64, error) {
	var invitations []models.Invitation
	var total int64

	if err := s.db.Model(&models.Invitation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&invitations).Error; err != nil {
		return nil, 0, err
	}
	return invitations, total, nil
}

// GetExpiringInvitations returns active invitations whose expiry falls
// within the given window, for the reminder loop.
func (s *InvitationService) GetExpiringInvitations(within time.Duration) ([]models.Invitation, error) {
	now := time.Now().UTC()
	var invitations []models.Invitation
	if err := s.db.Where("is_active = ? AND expires_at > ? AND expires_at <= ?", true, now, now.Add(within)).Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// GetInvitationStats returns counts for the admin dashboard
func (s *InvitationService) GetInvitationStats() (map[string]int64, error) {
	stats := make(map[string]int64)

	var total int64
	if err := s.db.Model(&models.Invitation{}).Count(&total).Error; err != nil {
		return nil, err
	}
	stats["total"] = total

	var active int64
	if err := s.db.Model(&models.Invitation{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return nil, err
	}
	stats["active"] = active

	var expired int64
	if err := s.db.Model(&models.Invitation{}).Where("is_active = ? AND expires_at < ?", true, time.Now().UTC()).Count(&expired).Error; err != nil {
		return nil, err
	}
	stats["expired"] = expired

	return stats, nil
}

// GalleryURL builds the public link a recipient opens
func (s *InvitationService) GalleryURL(tok string) string {
	return fmt.Sprintf("%s/gallery/%s", s.cfg.GalleryURL, tok)
}
