package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"github.com/fotoatelier/backend/pkg/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectService struct {
	db          *gorm.DB
	images      *ImageService
	invitations *InvitationService
}

func NewProjectService(db *gorm.DB, images *ImageService, invitations *InvitationService) *ProjectService {
	return &ProjectService{db: db, images: images, invitations: invitations}
}

// CreateProjectParams carries the admin form input for a new project.
type CreateProjectParams struct {
	Name             string
	ClientName       string
	ClientEmail      string
	ShootingDate     *time.Time
	ShootingLocation string
	Description      string
	CreatedBy        uuid.UUID
}

// CreateProject creates a new project in active status with zero images
func (s *ProjectService) CreateProject(params CreateProjectParams) (*models.Project, error) {
	if validation.IsBlank(params.Name) {
		return nil, newValidationError("project name is required")
	}
	if validation.IsBlank(params.ClientName) {
		return nil, newValidationError("client name is required")
	}
	if params.ClientEmail != "" && !validation.ValidateEmail(params.ClientEmail) {
		return nil, newValidationError("invalid client email")
	}

	project := &models.Project{
		Name:             validation.SanitizeString(params.Name),
		ClientName:       validation.SanitizeString(params.ClientName),
		ClientEmail:      params.ClientEmail,
		ShootingDate:     params.ShootingDate,
		ShootingLocation: validation.SanitizeString(params.ShootingLocation),
		Description:      validation.SanitizeString(params.Description),
		Status:           models.ProjectStatusActive,
		CreatedBy:        params.CreatedBy,
	}
	if err := s.db.Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return nil, err
	}
	return &project, nil
}

// GetProjects lists projects, newest first, optionally filtered by status
func (s *ProjectService) GetProjects(status string) ([]models.Project, error) {
	if status != "" && !models.IsValidProjectStatus(status) {
		return nil, newValidationError("invalid status; must be active|delivered|archived")
	}

	query := s.db.Model(&models.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProjectParams carries partial project updates; nil fields are left
// untouched.
type UpdateProjectParams struct {
	Name             *string
	ClientName       *string
	ClientEmail      *string
	ShootingDate     *time.Time
	ShootingLocation *string
	Description      *string
	Status           *string
	CoverImageURL    *string
}

// UpdateProject applies partial updates to a project
func (s *ProjectService) UpdateProject(projectID uuid.UUID, params UpdateProjectParams) error {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return err
	}

	if params.Name != nil {
		if validation.IsBlank(*params.Name) {
			return newValidationError("project name is required")
		}
		project.Name = *params.Name
	}
	if params.ClientName != nil {
		project.ClientName = *params.ClientName
	}
	if params.ClientEmail != nil {
		project.ClientEmail = *params.ClientEmail
	}
	if params.ShootingDate != nil {
		project.ShootingDate = params.ShootingDate
	}
	if params.ShootingLocation != nil {
		project.ShootingLocation = *params.ShootingLocation
	}
	if params.Description != nil {
		project.Description = *params.Description
	}
	if params.Status != nil {
		if !models.IsValidProjectStatus(*params.Status) {
			return newValidationError("invalid status; must be active|delivered|archived")
		}
		project.Status = *params.Status
	}
	if params.CoverImageURL != nil {
		project.CoverImageURL = *params.CoverImageURL
	}

	return s.db.Save(&project).Error
}

// ChildOutcome records one child deletion attempt of a cascade.
type ChildOutcome struct {
	Type string `json:"type"` // "image" | "invitation"
	ID   string `json:"id"`
	Err  error  `json:"-"`
}

// OK reports whether the child was deleted.
func (o ChildOutcome) OK() bool { return o.Err == nil }

// DeleteProject cascades over the project's images and invitations and then
// removes the project row unconditionally. Every child failure is recorded
// and logged but never aborts the loop: a stuck child must not leave an
// undeletable project behind. Callers get the per-child outcome list.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID uuid.UUID) ([]ChildOutcome, error) {
	if _, err := s.GetProject(projectID); err != nil {
		return nil, err
	}

	var outcomes []ChildOutcome

	images, err := s.images.GetImagesByProject(projectID)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		outcome := ChildOutcome{Type: "image", ID: img.ID.String()}
		if err := s.images.DeleteImage(ctx, img.ID); err != nil {
			log.Printf("WARN: cascade delete: failed to delete image %s: %v", img.ID, err)
			outcome.Err = err
		}
		outcomes = append(outcomes, outcome)
	}

	invitations, err := s.invitations.GetInvitationsByProject(projectID)
	if err != nil {
		return outcomes, err
	}
	for _, inv := range invitations {
		outcome := ChildOutcome{Type: "invitation", ID: inv.ID.String()}
		if err := s.invitations.DeleteInvitation(inv.ID); err != nil {
			log.Printf("WARN: cascade delete: failed to delete invitation %s: %v", inv.ID, err)
			outcome.Err = err
		}
		outcomes = append(outcomes, outcome)
	}

	if err := s.db.Delete(&models.Project{}, "id = ?", projectID).Error; err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// GetProjectsCount returns the total number of projects
func (s *ProjectService) GetProjectsCount() (int64, error) {
	var total int64
	err := s.db.Model(&models.Project{}).Count(&total).Error
	return total, err
}
