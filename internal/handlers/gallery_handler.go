package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fotoatelier/backend/internal/models"
	"github.com/fotoatelier/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GalleryHandler serves the public, token-addressed gallery surface.
// Visitors are anonymous; GalleryAuth puts their uid in the context.
type GalleryHandler struct {
	galleryService    *services.GalleryService
	invitationService *services.InvitationService
	imageService      *services.ImageService
	likeService       *services.LikeService
	exportService     *services.ExportService
}

func NewGalleryHandler(
	galleryService *services.GalleryService,
	invitationService *services.InvitationService,
	imageService *services.ImageService,
	likeService *services.LikeService,
	exportService *services.ExportService,
) *GalleryHandler {
	return &GalleryHandler{
		galleryService:    galleryService,
		invitationService: invitationService,
		imageService:      imageService,
		likeService:       likeService,
		exportService:     exportService,
	}
}

func anonymousUID(c *gin.Context) string {
	return c.GetString("anonymousUID")
}

// resolveValidInvitation loads the invitation behind the token and ensures
// it is currently usable. Returns nil after writing the response otherwise.
func (h *GalleryHandler) resolveValidInvitation(c *gin.Context) *models.Invitation {
	invitation, err := h.invitationService.ResolveByToken(c.Param("token"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gallery not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return nil
	}

	validation := h.invitationService.Validate(invitation, time.Now().UTC())
	if !validation.Valid {
		c.JSON(http.StatusForbidden, gin.H{
			"error":       "gallery not available",
			"reason":      validation.Reason,
			"client_name": invitation.ClientName,
		})
		return nil
	}
	return invitation
}

// GetGallery bootstraps the gallery page for a recipient
// GET /gallery/:token
func (h *GalleryHandler) GetGallery(c *gin.Context) {
	result, err := h.galleryService.Bootstrap(c.Request.Context(), c.Param("token"), anonymousUID(c))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gallery not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load gallery"})
		return
	}

	if !result.Validation.Valid {
		// Branded error page still shows who the gallery was for
		c.JSON(http.StatusForbidden, gin.H{
			"error":       "gallery not available",
			"reason":      result.Validation.Reason,
			"client_name": result.Invitation.ClientName,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_name":     result.Invitation.ClientName,
		"expires_at":      result.Invitation.ExpiresAt,
		"images":          result.Images,
		"liked_image_ids": result.LikedImageIDs,
	})
}

// ToggleLike likes or unlikes an image within the visitor's grant
// POST /gallery/:token/images/:imageId/like
func (h *GalleryHandler) ToggleLike(c *gin.Context) {
	invitation := h.resolveValidInvitation(c)
	if invitation == nil {
		return
	}

	imageID := c.Param("imageId")
	if !invitation.ContainsImage(imageID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "image not part of this gallery"})
		return
	}

	liked, err := h.likeService.Toggle(anonymousUID(c), imageID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_id": imageID, "liked": liked})
}

// GetLikes returns the visitor's liked image ids within this gallery
// GET /gallery/:token/likes
func (h *GalleryHandler) GetLikes(c *gin.Context) {
	invitation := h.resolveValidInvitation(c)
	if invitation == nil {
		return
	}

	ids, err := h.likeService.GetLikedImageIDs(anonymousUID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	liked := make([]string, 0, len(ids))
	for _, id := range ids {
		if invitation.ContainsImage(id) {
			liked = append(liked, id)
		}
	}

	c.JSON(http.StatusOK, gin.H{"liked_image_ids": liked})
}

// DownloadImage streams one image in original quality
// GET /gallery/:token/images/:imageId/download
func (h *GalleryHandler) DownloadImage(c *gin.Context) {
	invitation := h.resolveValidInvitation(c)
	if invitation == nil {
		return
	}

	imageID := c.Param("imageId")
	if !invitation.ContainsImage(imageID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "image not part of this gallery"})
		return
	}

	id, err := uuid.Parse(imageID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}
	img, err := h.imageService.GetImageByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	data, ext, err := h.exportService.FetchImage(c.Request.Context(), img)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch image"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.DownloadName(ext)))
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// ExportFavorites streams a zip archive of the requested images
// POST /gallery/:token/export  body: {"image_ids": [...]}
// Omitted image_ids exports the visitor's liked images.
func (h *GalleryHandler) ExportFavorites(c *gin.Context) {
	invitation := h.resolveValidInvitation(c)
	if invitation == nil {
		return
	}

	var req struct {
		ImageIDs []string `json:"image_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imageIDs := req.ImageIDs
	if len(imageIDs) == 0 {
		ids, err := h.likeService.GetLikedImageIDs(anonymousUID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		imageIDs = ids
	}

	selection := make([]string, 0, len(imageIDs))
	for _, id := range imageIDs {
		if invitation.ContainsImage(id) {
			selection = append(selection, id)
		}
	}
	if len(selection) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to export"})
		return
	}

	images, err := h.imageService.GetImagesByIDs(c.Request.Context(), selection)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to export"})
		return
	}

	filename := fmt.Sprintf("%s_favorites.zip", invitation.ClientName)
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	err = h.exportService.ExportZip(c.Request.Context(), images, c.Writer, nil)
	if err != nil {
		if errors.Is(err, services.ErrExportCancelled) {
			// Client went away, nothing was written
			c.Status(499)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
}
