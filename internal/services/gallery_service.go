package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// GalleryService bootstraps a recipient's gallery visit: token resolution,
// validation, session bookkeeping, and the parallel image/like load.
type GalleryService struct {
	db          *gorm.DB
	invitations *InvitationService
	images      *ImageService
	likes       *LikeService
}

func NewGalleryService(db *gorm.DB, invitations *InvitationService, images *ImageService, likes *LikeService) *GalleryService {
	return &GalleryService{db: db, invitations: invitations, images: images, likes: likes}
}

// BootstrapResult is everything a gallery page load needs. When Validation
// is not valid, Invitation still carries display metadata (client name) for
// the branded error page, but Images and LikedImageIDs stay empty.
type BootstrapResult struct {
	Invitation    *models.Invitation
	Validation    ValidationResult
	Images        []models.Image
	LikedImageIDs []string
}

// Bootstrap resolves the token and loads the gallery for one anonymous
// visitor. The invitation's accessCount is bumped exactly once per session
// lifetime: session creation touches the invitation, repeat visits only
// refresh the session's recency.
func (s *GalleryService) Bootstrap(ctx context.Context, tok, anonymousUID string) (*BootstrapResult, error) {
	invitation, err := s.invitations.ResolveByToken(tok)
	if err != nil {
		return nil, err
	}

	result := &BootstrapResult{Invitation: invitation}
	result.Validation = s.invitations.Validate(invitation, time.Now().UTC())
	if !result.Validation.Valid {
		return result, nil
	}

	if err := s.touchSession(anonymousUID, invitation); err != nil {
		return nil, fmt.Errorf("%w: session: %v", ErrGalleryLoad, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var images []models.Image
	g.Go(func() error {
		var err error
		images, err = s.images.GetImagesByIDs(gctx, invitation.ImageIDs)
		return err
	})

	var likedIDs []string
	g.Go(func() error {
		ids, err := s.likes.GetLikedImageIDs(anonymousUID)
		if err != nil {
			return err
		}
		// Only expose like-state for images inside this grant
		for _, id := range ids {
			if invitation.ContainsImage(id) {
				likedIDs = append(likedIDs, id)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGalleryLoad, err)
	}

	result.Images = images
	result.LikedImageIDs = likedIDs
	return result, nil
}

// touchSession creates the visitor's session on first access and counts the
// access on the invitation; later visits only update recency. The
// invitation touch itself is best-effort telemetry.
func (s *GalleryService) touchSession(anonymousUID string, invitation *models.Invitation) error {
	now := time.Now().UTC()

	var session models.Session
	err := s.db.First(&session, "anonymous_uid = ?", anonymousUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		session = models.Session{
			AnonymousUID:   anonymousUID,
			InvitationID:   invitation.ID.String(),
			CreatedAt:      now,
			LastAccessedAt: now,
		}
		if err := s.db.Create(&session).Error; err != nil {
			return err
		}
		if err := s.invitations.Touch(invitation.ID); err != nil {
			log.Printf("WARN: failed to record invitation access %s: %v", invitation.ID, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	return s.db.Model(&models.Session{}).Where("anonymous_uid = ?", anonymousUID).
		Update("last_accessed_at", now).Error
}

// CleanupStaleSessions removes anonymous sessions older than maxAge
func (s *GalleryService) CleanupStaleSessions(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	result := s.db.Where("last_accessed_at < ?", cutoff).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
