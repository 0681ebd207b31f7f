package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MediaHandler struct {
	imageService   *services.ImageService
	auditService   *services.AuditService
	storageService *services.StorageService
	s3Service      *services.S3Service
	cfg            *config.Config
}

func NewMediaHandler(imageService *services.ImageService, auditService *services.AuditService, storageService *services.StorageService, s3Service *services.S3Service, cfg *config.Config) *MediaHandler {
	return &MediaHandler{
		imageService:   imageService,
		auditService:   auditService,
		storageService: storageService,
		s3Service:      s3Service,
		cfg:            cfg,
	}
}

// UploadImage handles single image upload
// POST /admin/images
// Multipart form: file (required), project_id (required), title, description
func (h *MediaHandler) UploadImage(c *gin.Context) {
	projectID, err := uuid.Parse(c.PostForm("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("description")

	img, err := h.imageService.UploadImage(c.Request.Context(), projectID, adminID(c), header.Filename, data, title, description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, img)
}

// UploadImages handles batch image upload
// POST /admin/images/batch
// Multipart form: files[] (required), project_id (required)
func (h *MediaHandler) UploadImages(c *gin.Context) {
	projectID, err := uuid.Parse(c.PostForm("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	maxMemory := int64(100 * 1024 * 1024)
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form"})
		return
	}

	files, ok := c.Request.MultipartForm.File["files[]"]
	if !ok || len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "files[] is required"})
		return
	}
	if len(files) > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maximum 50 files per batch"})
		return
	}

	type uploadResult struct {
		ID       uuid.UUID `json:"id,omitempty"`
		Filename string    `json:"filename"`
		Status   string    `json:"status"`
		Error    string    `json:"error,omitempty"`
	}
	results := make([]uploadResult, len(files))

	// Bounded concurrency to keep memory in check
	maxConcurrent := 3
	sem := make(chan struct{}, maxConcurrent)
	done := make(chan int, len(files))

	userID := adminID(c)
	for i, fileHeader := range files {
		go func(idx int, fh *multipart.FileHeader) {
			sem <- struct{}{}
			defer func() { <-sem; done <- idx }()

			results[idx].Filename = fh.Filename

			file, err := fh.Open()
			if err != nil {
				results[idx].Status = "error"
				results[idx].Error = "failed to open file"
				return
			}
			defer file.Close()

			data, err := io.ReadAll(file)
			if err != nil {
				results[idx].Status = "error"
				results[idx].Error = "failed to read file"
				return
			}

			img, err := h.imageService.UploadImage(c.Request.Context(), projectID, userID, fh.Filename, data, "", "")
			if err != nil {
				results[idx].Status = "error"
				results[idx].Error = err.Error()
				return
			}

			results[idx].ID = img.ID
			results[idx].Status = "success"
		}(i, fileHeader)
	}

	for range files {
		<-done
	}

	success := 0
	failed := 0
	for _, r := range results {
		if r.Status == "success" {
			success++
		} else {
			failed++
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "batch upload complete",
		"total":   len(files),
		"success": success,
		"failed":  failed,
		"results": results,
	})
}

// GetImages lists all images for the admin grid
// GET /admin/images?page=1&limit=20
func (h *MediaHandler) GetImages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	images, total, err := h.imageService.GetImages(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"images": images,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetImage returns a single image
// GET /admin/images/:id
func (h *MediaHandler) GetImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	img, err := h.imageService.GetImageByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

// UpdateImage updates title and description
// PUT /admin/images/:id
func (h *MediaHandler) UpdateImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.imageService.UpdateImageMetadata(id, req.Title, req.Description); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image updated"})
}

// GetImageFile proxies the image blob, serving from the local mirror and
// falling back to S3 (caching the blob locally on the way through)
// GET /admin/images/:id/file
func (h *MediaHandler) GetImageFile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	img, err := h.imageService.GetImageByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(img.StoragePath), ".")
	downloadName := img.DownloadName(ext)

	if absPath, found := h.storageService.LocalPath(img.StoragePath); found {
		_ = h.storageService.ServeFileWithRange(c.Writer, c.Request, absPath, downloadName)
		return
	}

	buf, err := h.s3Service.Download(c.Request.Context(), img.StoragePath)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch image"})
		return
	}

	absPath, _, _, err := h.storageService.SaveStream(c.Request.Context(), img.StoragePath, bytes.NewReader(buf.Bytes()))
	if err != nil {
		// Serve from memory if the mirror write failed
		log.Printf("WARN: failed to mirror %s locally: %v", img.StoragePath, err)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
		c.Data(http.StatusOK, http.DetectContentType(buf.Bytes()), buf.Bytes())
		return
	}

	_ = h.storageService.ServeFileWithRange(c.Writer, c.Request, absPath, downloadName)
}

// PresignImageURL returns a short-lived direct S3 URL for an image
// GET /admin/images/:id/presign
func (h *MediaHandler) PresignImageURL(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	img, err := h.imageService.GetImageByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	ttl := time.Duration(h.cfg.PresignedURLTTLMinutes) * time.Minute
	url, err := h.s3Service.PresignGet(c.Request.Context(), img.StoragePath, ttl)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to presign URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": int(ttl.Seconds()),
	})
}

// BatchDeleteImages removes several images in one call, stopping at the
// first failure
// DELETE /admin/images  body: {"image_ids": [...]}
func (h *MediaHandler) BatchDeleteImages(c *gin.Context) {
	var req struct {
		ImageIDs []string `json:"image_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ImageIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_ids is required"})
		return
	}
	if len(req.ImageIDs) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maximum 100 images per batch"})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ImageIDs))
	for _, raw := range req.ImageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id: " + raw})
			return
		}
		ids = append(ids, id)
	}

	if err := h.imageService.DeleteImages(c.Request.Context(), ids); err != nil {
		respondError(c, err)
		return
	}

	if err := h.auditService.LogAction(adminID(c), "delete_image", "image", "batch", map[string]interface{}{
		"count":     len(ids),
		"image_ids": req.ImageIDs,
	}, c.ClientIP(), c.Request.UserAgent()); err != nil {
		log.Printf("WARN: failed to write audit log for delete_image: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "images deleted", "deleted": len(ids)})
}

// DeleteImage removes an image and its blob
// DELETE /admin/images/:id
func (h *MediaHandler) DeleteImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	img, err := h.imageService.GetImageByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.imageService.DeleteImage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	// Drop the local mirror copy as well
	if err := h.storageService.Remove(img.StoragePath); err != nil {
		log.Printf("WARN: failed to remove local mirror for %s: %v", img.StoragePath, err)
	}

	if err := h.auditService.LogAction(adminID(c), "delete_image", "image", id.String(), nil, c.ClientIP(), c.Request.UserAgent()); err != nil {
		log.Printf("WARN: failed to write audit log for delete_image: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}
