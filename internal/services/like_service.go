package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"gorm.io/gorm"
)

// LikeService toggles likes for gallery recipients. The like row id is
// derived from (userID, imageID), so two concurrent likes for the same pair
// collide on the primary key and the image's likeCount moves by exactly one.
type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// HasLiked checks whether the user already likes the image
func (s *LikeService) HasLiked(userID, imageID string) (bool, error) {
	var like models.Like
	err := s.db.First(&like, "id = ?", models.LikeID(userID, imageID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Like creates the like and increments the image's likeCount in one
// transaction. Fails if the pair is already liked or the image is gone.
func (s *LikeService) Like(userID, imageID string) error {
	likeID := models.LikeID(userID, imageID)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.First(&existing, "id = ?", likeID).Error
		if err == nil {
			return newValidationError("already liked")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var img models.Image
		if err := tx.First(&img, "id = ?", imageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
			}
			return err
		}

		if err := tx.Create(&models.Like{ID: likeID, UserID: userID, ImageID: imageID}).Error; err != nil {
			// A concurrent like for the same pair slips past the existence
			// check and lands here as a primary-key conflict
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newValidationError("already liked")
			}
			return err
		}

		return tx.Model(&models.Image{}).Where("id = ?", imageID).Updates(map[string]interface{}{
			"like_count": gorm.Expr("like_count + ?", 1),
			"updated_at": time.Now().UTC(),
		}).Error
	})
}

// Unlike deletes the like and decrements the image's likeCount in one
// transaction. Fails if the pair is not liked.
func (s *LikeService) Unlike(userID, imageID string) error {
	likeID := models.LikeID(userID, imageID)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var like models.Like
		if err := tx.First(&like, "id = ?", likeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("like %s: %w", likeID, ErrNotFound)
			}
			return err
		}

		if err := tx.Delete(&like).Error; err != nil {
			return err
		}

		return tx.Model(&models.Image{}).Where("id = ?", imageID).Updates(map[string]interface{}{
			"like_count": gorm.Expr("like_count - ?", 1),
			"updated_at": time.Now().UTC(),
		}).Error
	})
}

// Toggle likes the image if not yet liked, otherwise unlikes it. Returns
// the resulting liked state.
func (s *LikeService) Toggle(userID, imageID string) (bool, error) {
	liked, err := s.HasLiked(userID, imageID)
	if err != nil {
		return false, err
	}
	if liked {
		if err := s.Unlike(userID, imageID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.Like(userID, imageID); err != nil {
		return false, err
	}
	return true, nil
}

// GetLikedImageIDs returns all image ids the user has liked
func (s *LikeService) GetLikedImageIDs(userID string) ([]string, error) {
	var likes []models.Like
	if err := s.db.Where("user_id = ?", userID).Find(&likes).Error; err != nil {
		return nil, err
	}
	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.ImageID
	}
	return ids, nil
}
