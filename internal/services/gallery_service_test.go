package services

import (
	"context"
	"testing"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGalleryFixture(t *testing.T) (*GalleryService, *LikeService, *gorm.DB) {
	db := newTestDB(t)
	cfg := testConfig()
	images := NewImageService(db, cfg, newFakeStore())
	invitations := NewInvitationService(db, cfg)
	likes := NewLikeService(db)
	gallery := NewGalleryService(db, invitations, images, likes)
	return gallery, likes, db
}

func TestBootstrapLoadsGrantedImages(t *testing.T) {
	gallery, _, db := newGalleryFixture(t)

	project := createTestProject(t, db)
	base := time.Now().UTC().Add(-time.Hour)
	img1 := createTestImage(t, db, project.ID, "one", base)
	img2 := createTestImage(t, db, project.ID, "two", base.Add(time.Minute))
	// A third image exists but is not part of the grant
	createTestImage(t, db, project.ID, "three", base.Add(2*time.Minute))

	inv := createTestInvitation(t, db, project.ID, []string{img1.ID.String(), img2.ID.String()}, time.Now().Add(time.Hour))

	result, err := gallery.Bootstrap(context.Background(), inv.Token, "visitor-1")
	require.NoError(t, err)
	assert.True(t, result.Validation.Valid)
	require.Len(t, result.Images, 2)
	// Newest first
	assert.Equal(t, img2.ID, result.Images[0].ID)
	assert.Equal(t, img1.ID, result.Images[1].ID)
	assert.Empty(t, result.LikedImageIDs)
}

func TestBootstrapCountsAccessOncePerSession(t *testing.T) {
	gallery, _, db := newGalleryFixture(t)

	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())
	inv := createTestInvitation(t, db, project.ID, []string{img.ID.String()}, time.Now().Add(time.Hour))

	_, err := gallery.Bootstrap(context.Background(), inv.Token, "visitor-1")
	require.NoError(t, err)

	var reloaded models.Invitation
	require.NoError(t, db.First(&reloaded, "id = ?", inv.ID).Error)
	assert.Equal(t, 1, reloaded.AccessCount)

	// Same visitor again: recency only, no second count
	_, err = gallery.Bootstrap(context.Background(), inv.Token, "visitor-1")
	require.NoError(t, err)
	require.NoError(t, db.First(&reloaded, "id = ?", inv.ID).Error)
	assert.Equal(t, 1, reloaded.AccessCount)

	// A different visitor counts once more
	_, err = gallery.Bootstrap(context.Background(), inv.Token, "visitor-2")
	require.NoError(t, err)
	require.NoError(t, db.First(&reloaded, "id = ?", inv.ID).Error)
	assert.Equal(t, 2, reloaded.AccessCount)
}

func TestBootstrapFiltersLikesToGrant(t *testing.T) {
	gallery, likes, db := newGalleryFixture(t)

	project := createTestProject(t, db)
	inGrant := createTestImage(t, db, project.ID, "", time.Now().UTC())
	outside := createTestImage(t, db, project.ID, "", time.Now().UTC())
	inv := createTestInvitation(t, db, project.ID, []string{inGrant.ID.String()}, time.Now().Add(time.Hour))

	require.NoError(t, likes.Like("visitor-1", inGrant.ID.String()))
	require.NoError(t, likes.Like("visitor-1", outside.ID.String()))

	result, err := gallery.Bootstrap(context.Background(), inv.Token, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{inGrant.ID.String()}, result.LikedImageIDs)
}

func TestBootstrapExpiredInvitation(t *testing.T) {
	gallery, _, db := newGalleryFixture(t)

	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())
	inv := createTestInvitation(t, db, project.ID, []string{img.ID.String()}, time.Now().Add(-time.Hour))

	result, err := gallery.Bootstrap(context.Background(), inv.Token, "visitor-1")
	require.NoError(t, err)
	assert.False(t, result.Validation.Valid)
	assert.Equal(t, "expired", result.Validation.Reason)
	// Display metadata survives for the error page, content does not
	assert.Equal(t, "Tanaka", result.Invitation.ClientName)
	assert.Empty(t, result.Images)

	// Invalid visits never count as accesses
	var reloaded models.Invitation
	require.NoError(t, db.First(&reloaded, "id = ?", inv.ID).Error)
	assert.Zero(t, reloaded.AccessCount)
}

func TestBootstrapRevokedInvitation(t *testing.T) {
	gallery, _, db := newGalleryFixture(t)

	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())
	inv := createTestInvitation(t, db, project.ID, []string{img.ID.String()}, time.Now().Add(time.Hour))
	require.NoError(t, db.Model(&models.Invitation{}).Where("id = ?", inv.ID).Update("is_active", false).Error)

	result, err := gallery.Bootstrap(context.Background(), inv.Token, "visitor-1")
	require.NoError(t, err)
	assert.False(t, result.Validation.Valid)
	assert.Equal(t, "deactivated", result.Validation.Reason)
}

func TestBootstrapUnknownToken(t *testing.T) {
	gallery, _, _ := newGalleryFixture(t)

	_, err := gallery.Bootstrap(context.Background(), "never-issued-token-xx", "visitor-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBootstrapSkipsDeletedImages(t *testing.T) {
	gallery, _, db := newGalleryFixture(t)

	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())
	inv := createTestInvitation(t, db, project.ID, []string{img.ID.String(), "00000000-0000-0000-0000-00000000dead"}, time.Now().Add(time.Hour))

	result, err := gallery.Bootstrap(context.Background(), inv.Token, "visitor-1")
	require.NoError(t, err)
	require.Len(t, result.Images, 1)
	assert.Equal(t, img.ID, result.Images[0].ID)
}

func TestCleanupStaleSessions(t *testing.T) {
	gallery, _, db := newGalleryFixture(t)

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Create(&models.Session{AnonymousUID: "stale", InvitationID: "x", CreatedAt: old, LastAccessedAt: old}).Error)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Session{AnonymousUID: "fresh", InvitationID: "x", CreatedAt: now, LastAccessedAt: now}).Error)

	deleted, err := gallery.CleanupStaleSessions(24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
