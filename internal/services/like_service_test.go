package services

import (
	"testing"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLikeIncrementsLikeCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db)
	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())

	require.NoError(t, svc.Like("visitor-1", img.ID.String()))

	var reloaded models.Image
	require.NoError(t, db.First(&reloaded, "id = ?", img.ID).Error)
	assert.Equal(t, 1, reloaded.LikeCount)

	liked, err := svc.HasLiked("visitor-1", img.ID.String())
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestLikeConcurrentDuplicateRejectedAsAlreadyLiked(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db)
	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())
	uid := "visitor-1"

	// A second session inserts the same like between the existence check
	// and the insert, so the insert lands on the primary-key conflict
	snuck := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("conflicting_like_row", func(tx *gorm.DB) {
		if tx.Statement.Table != "likes" || snuck {
			return
		}
		snuck = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO likes (id, user_id, image_id, created_at) VALUES (?, ?, ?, ?)",
			models.LikeID(uid, img.ID.String()), uid, img.ID.String(), time.Now().UTC(),
		).Error)
	}))

	err := svc.Like(uid, img.ID.String())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// The losing transaction must not have touched the counter
	var reloaded models.Image
	require.NoError(t, db.First(&reloaded, "id = ?", img.ID).Error)
	assert.Zero(t, reloaded.LikeCount)
}

func TestLikeTwiceFailsAndCountStaysAtOne(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db)
	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())

	require.NoError(t, svc.Like("visitor-1", img.ID.String()))

	err := svc.Like("visitor-1", img.ID.String())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var reloaded models.Image
	require.NoError(t, db.First(&reloaded, "id = ?", img.ID).Error)
	assert.Equal(t, 1, reloaded.LikeCount)
}

func TestLikeUnknownImage(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db)

	err := svc.Like("visitor-1", "00000000-0000-0000-0000-000000000001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnlikeDecrementsLikeCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db)
	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())

	require.NoError(t, svc.Like("visitor-1", img.ID.String()))
	require.NoError(t, svc.Unlike("visitor-1", img.ID.String()))

	var reloaded models.Image
	require.NoError(t, db.First(&reloaded, "id = ?", img.ID).Error)
	assert.Equal(t, 0, reloaded.LikeCount)

	err := svc.Unlike("visitor-1", img.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggle(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db)
	project := createTestProject(t, db)
	img := createTestImage(t, db, project.ID, "", time.Now().UTC())

	liked, err := svc.Toggle("visitor-1", img.ID.String())
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.Toggle("visitor-1", img.ID.String())
	require.NoError(t, err)
	assert.False(t, liked)

	var reloaded models.Image
	require.NoError(t, db.First(&reloaded, "id = ?", img.ID).Error)
	assert.Equal(t, 0, reloaded.LikeCount)
}

func TestLikesAreScopedPerVisitor(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db)
	project := createTestProject(t, db)
	img1 := createTestImage(t, db, project.ID, "", time.Now().UTC())
	img2 := createTestImage(t, db, project.ID, "", time.Now().UTC())

	require.NoError(t, svc.Like("visitor-1", img1.ID.String()))
	require.NoError(t, svc.Like("visitor-1", img2.ID.String()))
	require.NoError(t, svc.Like("visitor-2", img1.ID.String()))

	ids, err := svc.GetLikedImageIDs("visitor-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{img1.ID.String(), img2.ID.String()}, ids)

	ids, err = svc.GetLikedImageIDs("visitor-2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{img1.ID.String()}, ids)

	var reloaded models.Image
	require.NoError(t, db.First(&reloaded, "id = ?", img1.ID).Error)
	assert.Equal(t, 2, reloaded.LikeCount)
}
