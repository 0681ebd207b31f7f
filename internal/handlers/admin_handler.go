package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/fotoatelier/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	projectService    *services.ProjectService
	invitationService *services.InvitationService
	imageService      *services.ImageService
	qrService         *services.QRService
	emailService      *services.EmailService
	auditService      *services.AuditService
}

func NewAdminHandler(
	projectService *services.ProjectService,
	invitationService *services.InvitationService,
	imageService *services.ImageService,
	qrService *services.QRService,
	emailService *services.EmailService,
	auditService *services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		projectService:    projectService,
		invitationService: invitationService,
		imageService:      imageService,
		qrService:         qrService,
		emailService:      emailService,
		auditService:      auditService,
	}
}

func adminID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func (h *AdminHandler) audit(c *gin.Context, action, targetType, targetID string, details map[string]interface{}) {
	if err := h.auditService.LogAction(adminID(c), action, targetType, targetID, details, c.ClientIP(), c.Request.UserAgent()); err != nil {
		log.Printf("WARN: failed to write audit log for %s: %v", action, err)
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// CreateProject handles project creation
// POST /admin/projects
func (h *AdminHandler) CreateProject(c *gin.Context) {
	var req struct {
		Name             string     `json:"name" binding:"required"`
		ClientName       string     `json:"client_name" binding:"required"`
		ClientEmail      string     `json:"client_email"`
		ShootingDate     *time.Time `json:"shooting_date"`
		ShootingLocation string     `json:"shooting_location"`
		Description      string     `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectParams{
		Name:             req.Name,
		ClientName:       req.ClientName,
		ClientEmail:      req.ClientEmail,
		ShootingDate:     req.ShootingDate,
		ShootingLocation: req.ShootingLocation,
		Description:      req.Description,
		CreatedBy:        adminID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "create_project", "project", project.ID.String(), nil)
	c.JSON(http.StatusCreated, project)
}

// GetProjects lists projects, optionally filtered by status
// GET /admin/projects?status=active
func (h *AdminHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectService.GetProjects(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
}

// GetProject returns a single project with its images and invitations
// GET /admin/projects/:id
func (h *AdminHandler) GetProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(id)
	if err != nil {
		respondError(c, err)
		return
	}

	images, err := h.imageService.GetImagesByProject(id)
	if err != nil {
		respondError(c, err)
		return
	}

	invitations, err := h.invitationService.GetInvitationsByProject(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":     project,
		"images":      images,
		"invitations": invitations,
	})
}

// UpdateProject applies partial updates to a project
// PUT /admin/projects/:id
func (h *AdminHandler) UpdateProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name             *string    `json:"name"`
		ClientName       *string    `json:"client_name"`
		ClientEmail      *string    `json:"client_email"`
		ShootingDate     *time.Time `json:"shooting_date"`
		ShootingLocation *string    `json:"shooting_location"`
		Description      *string    `json:"description"`
		Status           *string    `json:"status"`
		CoverImageURL    *string    `json:"cover_image_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.projectService.UpdateProject(id, services.UpdateProjectParams{
		Name:             req.Name,
		ClientName:       req.ClientName,
		ClientEmail:      req.ClientEmail,
		ShootingDate:     req.ShootingDate,
		ShootingLocation: req.ShootingLocation,
		Description:      req.Description,
		Status:           req.Status,
		CoverImageURL:    req.CoverImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "update_project", "project", id.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "project updated"})
}

// DeleteProject removes a project and cascades over its images and
// invitations. Child failures are reported, not fatal.
// DELETE /admin/projects/:id
func (h *AdminHandler) DeleteProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	outcomes, err := h.projectService.DeleteProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	deleted := 0
	failed := make([]gin.H, 0)
	for _, o := range outcomes {
		if o.OK() {
			deleted++
		} else {
			failed = append(failed, gin.H{"type": o.Type, "id": o.ID, "error": o.Err.Error()})
		}
	}

	h.audit(c, "delete_project", "project", id.String(), map[string]interface{}{
		"children_deleted": deleted,
		"children_failed":  len(failed),
	})

	c.JSON(http.StatusOK, gin.H{
		"message":          "project deleted",
		"children_deleted": deleted,
		"children_failed":  failed,
	})
}

// CreateInvitation creates a gallery invitation for a selection of images
// POST /admin/invitations
func (h *AdminHandler) CreateInvitation(c *gin.Context) {
	var req struct {
		ProjectID   *uuid.UUID `json:"project_id"`
		ClientName  string     `json:"client_name" binding:"required"`
		ClientEmail string     `json:"client_email"`
		ImageIDs    []string   `json:"image_ids" binding:"required"`
		ExpiresAt   time.Time  `json:"expires_at" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invitation, err := h.invitationService.CreateInvitation(services.CreateInvitationParams{
		ProjectID:   req.ProjectID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		CreatedBy:   adminID(c),
		ImageIDs:    req.ImageIDs,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "create_invitation", "invitation", invitation.ID.String(), map[string]interface{}{
		"image_count": len(req.ImageIDs),
	})

	c.JSON(http.StatusCreated, gin.H{
		"invitation":  invitation,
		"gallery_url": h.invitationService.GalleryURL(invitation.Token),
	})
}

// GetInvitations lists all invitations with pagination
// GET /admin/invitations?page=1&limit=20
func (h *AdminHandler) GetInvitations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	invitations, total, err := h.invitationService.GetInvitations(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": invitations,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// GetInvitation returns a single invitation
// GET /admin/invitations/:id
func (h *AdminHandler) GetInvitation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invitation, err := h.invitationService.GetInvitationByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitation":  invitation,
		"status":      invitation.Status(time.Now().UTC()),
		"gallery_url": h.invitationService.GalleryURL(invitation.Token),
	})
}

// UpdateInvitation applies partial updates to an invitation
// PUT /admin/invitations/:id
func (h *AdminHandler) UpdateInvitation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ClientName  *string    `json:"client_name"`
		ClientEmail *string    `json:"client_email"`
		ImageIDs    []string   `json:"image_ids"`
		ExpiresAt   *time.Time `json:"expires_at"`
		IsActive    *bool      `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.invitationService.UpdateInvitation(id, services.UpdateInvitationParams{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ImageIDs:    req.ImageIDs,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "update_invitation", "invitation", id.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "invitation updated"})
}

// RevokeInvitation deactivates an invitation without deleting it
// POST /admin/invitations/:id/revoke
func (h *AdminHandler) RevokeInvitation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.invitationService.Revoke(id); err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "revoke_invitation", "invitation", id.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "invitation revoked"})
}

// ReactivateInvitation re-enables a revoked invitation
// POST /admin/invitations/:id/reactivate
func (h *AdminHandler) ReactivateInvitation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.invitationService.Reactivate(id); err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "reactivate_invitation", "invitation", id.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "invitation reactivated"})
}

// DeleteInvitation removes an invitation permanently
// DELETE /admin/invitations/:id
func (h *AdminHandler) DeleteInvitation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.invitationService.DeleteInvitation(id); err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "delete_invitation", "invitation", id.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "invitation deleted"})
}

// GetInvitationStats returns counts for the admin dashboard
// GET /admin/invitations/stats
func (h *AdminHandler) GetInvitationStats(c *gin.Context) {
	stats, err := h.invitationService.GetInvitationStats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetInvitationQRPDF returns a printable PDF with the gallery QR code
// GET /admin/invitations/:id/qr-pdf
func (h *AdminHandler) GetInvitationQRPDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invitation, err := h.invitationService.GetInvitationByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	pdf, err := h.qrService.GenerateGalleryQRPDF(invitation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=gallery_qr.pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// SendInvitationEmail delivers the gallery link to the recipient by email
// POST /admin/invitations/:id/send
func (h *AdminHandler) SendInvitationEmail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invitation, err := h.invitationService.GetInvitationByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	galleryURL := h.invitationService.GalleryURL(invitation.Token)
	if err := h.emailService.SendInvitationEmail(invitation, galleryURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send email"})
		return
	}

	h.audit(c, "send_invitation_email", "invitation", id.String(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "invitation email sent"})
}

// GetAuditLog lists recent admin actions
// GET /admin/audit?page=1&limit=50&action=delete_project
func (h *AdminHandler) GetAuditLog(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit > 200 {
		limit = 200
	}

	logs, total, err := h.auditService.GetRecentActions(page, limit, nil, c.Query("action"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetDashboardStats returns top-level counts for the admin dashboard
// GET /admin/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	projects, err := h.projectService.GetProjectsCount()
	if err != nil {
		respondError(c, err)
		return
	}
	images, err := h.imageService.GetImagesCount()
	if err != nil {
		respondError(c, err)
		return
	}
	invitations, err := h.invitationService.GetInvitationStats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":    projects,
		"images":      images,
		"invitations": invitations,
	})
}
