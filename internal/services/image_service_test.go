package services

import (
	"context"
	"testing"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadImageIncrementsProjectCount(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := NewImageService(db, testConfig(), store)
	project := createTestProject(t, db)

	img, err := svc.UploadImage(context.Background(), project.ID, uuid.New(), "photo.png", testPNG(t), "First dance", "")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, img.ID)
	assert.Equal(t, "First dance", img.Title)
	assert.True(t, store.has(img.StoragePath))

	var reloaded models.Project
	require.NoError(t, db.First(&reloaded, "id = ?", project.ID).Error)
	assert.Equal(t, 1, reloaded.ImageCount)
	// First upload's thumbnail becomes the cover
	assert.NotEmpty(t, reloaded.CoverImageURL)
}

func TestUploadImageUnknownProjectCleansUpBlob(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := NewImageService(db, testConfig(), store)

	_, err := svc.UploadImage(context.Background(), uuid.New(), uuid.New(), "photo.png", testPNG(t), "", "")
	require.ErrorIs(t, err, ErrNotFound)

	// No image row and the original blob was removed again
	var count int64
	require.NoError(t, db.Model(&models.Image{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.NotEmpty(t, store.deleted)
}

func TestUploadImageRejectsNonImageData(t *testing.T) {
	db := newTestDB(t)
	svc := NewImageService(db, testConfig(), newFakeStore())
	project := createTestProject(t, db)

	_, err := svc.UploadImage(context.Background(), project.ID, uuid.New(), "notes.jpg", []byte("definitely not an image"), "", "")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestUploadImageRejectsUnsupportedExtension(t *testing.T) {
	db := newTestDB(t)
	svc := NewImageService(db, testConfig(), newFakeStore())
	project := createTestProject(t, db)

	_, err := svc.UploadImage(context.Background(), project.ID, uuid.New(), "photo.gif", testPNG(t), "", "")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDeleteImageDecrementsProjectCount(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := NewImageService(db, testConfig(), store)
	project := createTestProject(t, db)

	img, err := svc.UploadImage(context.Background(), project.ID, uuid.New(), "photo.png", testPNG(t), "", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteImage(context.Background(), img.ID))

	var reloaded models.Project
	require.NoError(t, db.First(&reloaded, "id = ?", project.ID).Error)
	assert.Equal(t, 0, reloaded.ImageCount)
	assert.False(t, store.has(img.StoragePath))

	err = svc.DeleteImage(context.Background(), img.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteImageStorageFailureStillDeletesRecord(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := NewImageService(db, testConfig(), store)
	project := createTestProject(t, db)

	img, err := svc.UploadImage(context.Background(), project.ID, uuid.New(), "photo.png", testPNG(t), "", "")
	require.NoError(t, err)

	// Blob delete is best-effort; metadata wins
	store.failDelete = true
	require.NoError(t, svc.DeleteImage(context.Background(), img.ID))

	var count int64
	require.NoError(t, db.Model(&models.Image{}).Where("id = ?", img.ID).Count(&count).Error)
	assert.Zero(t, count)

	var reloaded models.Project
	require.NoError(t, db.First(&reloaded, "id = ?", project.ID).Error)
	assert.Equal(t, 0, reloaded.ImageCount)
}

func TestDeleteImagesStopsAtFirstFailure(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := NewImageService(db, testConfig(), store)
	project := createTestProject(t, db)

	img1, err := svc.UploadImage(context.Background(), project.ID, uuid.New(), "a.png", testPNG(t), "", "")
	require.NoError(t, err)
	img2, err := svc.UploadImage(context.Background(), project.ID, uuid.New(), "b.png", testPNG(t), "", "")
	require.NoError(t, err)

	err = svc.DeleteImages(context.Background(), []uuid.UUID{img1.ID, uuid.New(), img2.ID})
	require.ErrorIs(t, err, ErrNotFound)

	// img1 went through, img2 was never reached
	_, err = svc.GetImageByID(img1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetImageByID(img2.ID)
	assert.NoError(t, err)
}

func TestGetImagesByIDsBatchesAndSorts(t *testing.T) {
	db := newTestDB(t)
	svc := NewImageService(db, testConfig(), newFakeStore())
	project := createTestProject(t, db)

	// More than two id batches worth of images
	base := time.Now().UTC().Add(-time.Hour)
	ids := make([]string, 0, 70)
	for i := 0; i < 70; i++ {
		img := createTestImage(t, db, project.ID, "", base.Add(time.Duration(i)*time.Second))
		ids = append(ids, img.ID.String())
	}
	// Unknown ids are skipped silently
	ids = append(ids, uuid.New().String(), uuid.New().String())

	images, err := svc.GetImagesByIDs(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, images, 70)

	for i := 1; i < len(images); i++ {
		assert.False(t, images[i].CreatedAt.After(images[i-1].CreatedAt), "images must be sorted newest first")
	}
}

func TestGetImagesByIDsEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewImageService(db, testConfig(), newFakeStore())

	images, err := svc.GetImagesByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestUpdateImageMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := NewImageService(db, testConfig(), newFakeStore())
	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "old", time.Now().UTC())

	require.NoError(t, svc.UpdateImageMetadata(img.ID, "new title", "a description"))

	reloaded, err := svc.GetImageByID(img.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", reloaded.Title)
	assert.Equal(t, "a description", reloaded.Description)

	err = svc.UpdateImageMetadata(uuid.New(), "x", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
