package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProjectService(t *testing.T) *ProjectService {
	db := newTestDB(t)
	cfg := testConfig()
	images := NewImageService(db, cfg, newFakeStore())
	invitations := NewInvitationService(db, cfg)
	return NewProjectService(db, images, invitations)
}

func TestCreateProjectValidation(t *testing.T) {
	projects := newProjectService(t)

	_, err := projects.CreateProject(CreateProjectParams{Name: "", ClientName: "Tanaka", CreatedBy: uuid.New()})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = projects.CreateProject(CreateProjectParams{Name: "Shoot", ClientName: " ", CreatedBy: uuid.New()})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	project, err := projects.CreateProject(CreateProjectParams{Name: "Shoot", ClientName: "Tanaka", CreatedBy: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, project.Status)
	assert.Zero(t, project.ImageCount)
}

func TestGetProjectsStatusFilter(t *testing.T) {
	projects := newProjectService(t)

	a, err := projects.CreateProject(CreateProjectParams{Name: "A", ClientName: "Tanaka", CreatedBy: uuid.New()})
	require.NoError(t, err)
	_, err = projects.CreateProject(CreateProjectParams{Name: "B", ClientName: "Sato", CreatedBy: uuid.New()})
	require.NoError(t, err)

	delivered := models.ProjectStatusDelivered
	require.NoError(t, projects.UpdateProject(a.ID, UpdateProjectParams{Status: &delivered}))

	list, err := projects.GetProjects(models.ProjectStatusDelivered)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].Name)

	list, err = projects.GetProjects("")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = projects.GetProjects("bogus")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestUpdateProjectInvalidStatus(t *testing.T) {
	projects := newProjectService(t)

	project, err := projects.CreateProject(CreateProjectParams{Name: "Shoot", ClientName: "Tanaka", CreatedBy: uuid.New()})
	require.NoError(t, err)

	bogus := "bogus"
	err = projects.UpdateProject(project.ID, UpdateProjectParams{Status: &bogus})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDeleteProjectCascades(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	cfg := testConfig()
	images := NewImageService(db, cfg, store)
	invitations := NewInvitationService(db, cfg)
	projects := NewProjectService(db, images, invitations)

	project := createTestProject(t, db)
	img1, err := images.UploadImage(context.Background(), project.ID, uuid.New(), "a.png", testPNG(t), "", "")
	require.NoError(t, err)
	img2, err := images.UploadImage(context.Background(), project.ID, uuid.New(), "b.png", testPNG(t), "", "")
	require.NoError(t, err)

	inv, err := invitations.CreateInvitation(CreateInvitationParams{
		ProjectID:  &project.ID,
		ClientName: "Tanaka",
		CreatedBy:  uuid.New(),
		ImageIDs:   []string{img1.ID.String(), img2.ID.String()},
		ExpiresAt:  time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	outcomes, err := projects.DeleteProject(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.True(t, o.OK(), "child %s/%s should have been deleted", o.Type, o.ID)
	}

	_, err = projects.GetProject(project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = images.GetImageByID(img1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = invitations.GetInvitationByID(inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectSurvivesChildStorageFailure(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	cfg := testConfig()
	images := NewImageService(db, cfg, store)
	invitations := NewInvitationService(db, cfg)
	projects := NewProjectService(db, images, invitations)

	project := createTestProject(t, db)
	_, err := images.UploadImage(context.Background(), project.ID, uuid.New(), "a.png", testPNG(t), "", "")
	require.NoError(t, err)

	// Blob deletion failing must not leave an undeletable project behind
	store.failDelete = true

	outcomes, err := projects.DeleteProject(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].OK())

	_, err = projects.GetProject(project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectContinuesPastFailedChild(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	cfg := testConfig()
	images := NewImageService(db, cfg, store)
	invitations := NewInvitationService(db, cfg)
	projects := NewProjectService(db, images, invitations)

	project := createTestProject(t, db)
	var uploaded []uuid.UUID
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		img, err := images.UploadImage(context.Background(), project.ID, uuid.New(), name, testPNG(t), "", "")
		require.NoError(t, err)
		uploaded = append(uploaded, img.ID)
	}
	inv, err := invitations.CreateInvitation(CreateInvitationParams{
		ProjectID:  &project.ID,
		ClientName: "Tanaka",
		CreatedBy:  uuid.New(),
		ImageIDs:   []string{uploaded[0].String()},
		ExpiresAt:  time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	// The second image row refuses to delete; the cascade must keep going
	// and still remove the project and the remaining children
	var imageDeletes int
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("fail_second_image_delete", func(tx *gorm.DB) {
		if tx.Statement.Table != "images" {
			return
		}
		imageDeletes++
		if imageDeletes == 2 {
			tx.AddError(errors.New("connection reset by peer"))
		}
	}))

	outcomes, err := projects.DeleteProject(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	var failed []ChildOutcome
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "image", failed[0].Type)

	_, err = projects.GetProject(project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = invitations.GetInvitationByID(inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Only the stuck child's row survives
	var remaining int64
	require.NoError(t, db.Model(&models.Image{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestDeleteProjectUnknown(t *testing.T) {
	projects := newProjectService(t)

	_, err := projects.DeleteProject(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
