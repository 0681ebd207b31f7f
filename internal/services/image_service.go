package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for thumbnail decoding
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/models"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"gorm.io/gorm"
)

// idBatchSize caps the size of "id IN (...)" lookups; larger requests are
// split, merged, and re-sorted because per-batch order is meaningless.
const idBatchSize = 30

const thumbnailWidth = 480

type ImageService struct {
	db    *gorm.DB
	cfg   *config.Config
	store ObjectStore
}

func NewImageService(db *gorm.DB, cfg *config.Config, store ObjectStore) *ImageService {
	return &ImageService{db: db, cfg: cfg, store: store}
}

// UploadImage uploads an image blob and creates the Image record inside one
// transaction with the project's imageCount increment. The project must
// exist when the transaction runs; otherwise nothing is written and the
// uploaded blob is cleaned up.
func (s *ImageService) UploadImage(ctx context.Context, projectID, userID uuid.UUID, filename string, data []byte, title, description string) (*models.Image, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, newValidationError("invalid content type: expected image, got %s", mimeType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	allowedExts := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowedExts[ext] {
		return nil, newValidationError("unsupported image extension: %s", ext)
	}

	if int64(len(data)) > s.cfg.UploadMaxImageSize {
		return nil, newValidationError("image too large: %d bytes (max: %d)", len(data), s.cfg.UploadMaxImageSize)
	}

	key := fmt.Sprintf("images/%s/%s%s", userID.String(), uuid.New().String(), ext)

	url, err := s.store.Upload(ctx, key, bytes.NewReader(data), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to storage: %w", err)
	}

	// Thumbnail is best-effort; used as the project cover when none is set
	thumbURL := s.uploadThumbnail(ctx, key, data)

	img := &models.Image{
		ProjectID:   &projectID,
		URL:         url,
		StoragePath: key,
		Title:       title,
		Description: description,
		UserID:      userID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
			}
			return err
		}

		if err := tx.Create(img).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"image_count": gorm.Expr("image_count + ?", 1),
			"updated_at":  time.Now().UTC(),
		}
		if project.CoverImageURL == "" && thumbURL != "" {
			updates["cover_image_url"] = thumbURL
		}
		return tx.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates).Error
	})
	if err != nil {
		// The record was never written; remove the orphaned blob
		if derr := s.store.Delete(ctx, key); derr != nil {
			log.Printf("WARN: failed to clean up storage object %s: %v", key, derr)
		}
		return nil, err
	}

	return img, nil
}

// uploadThumbnail scales the image down and stores it next to the original.
// Returns "" when decoding or uploading fails; the upload itself never fails
// because of a thumbnail.
func (s *ImageService) uploadThumbnail(ctx context.Context, key string, data []byte) string {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("WARN: thumbnail decode failed for %s: %v", key, err)
		return ""
	}
	thumb := resize.Resize(thumbnailWidth, 0, src, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		log.Printf("WARN: thumbnail encode failed for %s: %v", key, err)
		return ""
	}

	thumbKey := strings.TrimSuffix(key, filepath.Ext(key)) + "_thumb.jpg"
	url, err := s.store.Upload(ctx, thumbKey, &buf, "image/jpeg")
	if err != nil {
		log.Printf("WARN: thumbnail upload failed for %s: %v", thumbKey, err)
		return ""
	}
	return url
}

// DeleteImage deletes the Image record and decrements the project's
// imageCount in one transaction. The blob-store object is removed
// best-effort: a storage failure is logged, the metadata delete still
// commits.
func (s *ImageService) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var img models.Image
		if err := tx.First(&img, "id = ?", imageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
			}
			return err
		}

		if err := s.store.Delete(ctx, img.StoragePath); err != nil {
			log.Printf("WARN: failed to delete storage object %s: %v", img.StoragePath, err)
		}

		if err := tx.Delete(&img).Error; err != nil {
			return err
		}

		if img.ProjectID != nil {
			return tx.Model(&models.Project{}).Where("id = ?", *img.ProjectID).Updates(map[string]interface{}{
				"image_count": gorm.Expr("image_count - ?", 1),
				"updated_at":  time.Now().UTC(),
			}).Error
		}
		return nil
	})
}

// DeleteImages deletes multiple images, stopping at the first failure
func (s *ImageService) DeleteImages(ctx context.Context, imageIDs []uuid.UUID) error {
	for _, id := range imageIDs {
		if err := s.DeleteImage(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// GetImageByID returns a single image by ID
func (s *ImageService) GetImageByID(imageID uuid.UUID) (*models.Image, error) {
	var img models.Image
	if err := s.db.First(&img, "id = ?", imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
		}
		return nil, err
	}
	return &img, nil
}

// GetImagesByProject returns all images of a project, newest first
func (s *ImageService) GetImagesByProject(projectID uuid.UUID) ([]models.Image, error) {
	var images []models.Image
	if err := s.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// GetImages returns all images for the admin grid (with pagination)
func (s *ImageService) GetImages(limit, offset int) ([]models.Image, int64, error) {
	var images []models.Image
	var total int64

	if err := s.db.Model(&models.Image{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := s.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&images).Error; err != nil {
		return nil, 0, err
	}

	return images, total, nil
}

// GetImagesByIDs loads the given ids in batches of 30, merges the results
// and re-sorts by creation time descending. Missing ids are skipped, not an
// error: an invitation may reference images deleted after it was issued.
func (s *ImageService) GetImagesByIDs(ctx context.Context, imageIDs []string) ([]models.Image, error) {
	if len(imageIDs) == 0 {
		return []models.Image{}, nil
	}

	images := make([]models.Image, 0, len(imageIDs))
	for start := 0; start < len(imageIDs); start += idBatchSize {
		end := start + idBatchSize
		if end > len(imageIDs) {
			end = len(imageIDs)
		}
		var batch []models.Image
		if err := s.db.WithContext(ctx).Where("id IN ?", imageIDs[start:end]).Find(&batch).Error; err != nil {
			return nil, err
		}
		images = append(images, batch...)
	}

	// Per-batch order is not guaranteed; sort once after the merge
	sort.Slice(images, func(i, j int) bool {
		return images[i].CreatedAt.After(images[j].CreatedAt)
	})
	return images, nil
}

// UpdateImageMetadata updates title and description
func (s *ImageService) UpdateImageMetadata(imageID uuid.UUID, title, description string) error {
	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if description != "" {
		updates["description"] = description
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	result := s.db.Model(&models.Image{}).Where("id = ?", imageID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	return nil
}

// GetImagesCount returns the total number of images
func (s *ImageService) GetImagesCount() (int64, error) {
	var total int64
	err := s.db.Model(&models.Image{}).Count(&total).Error
	return total, err
}
