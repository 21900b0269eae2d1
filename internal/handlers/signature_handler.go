package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/middleware"
	"campus-approvals/internal/repository"
	"campus-approvals/internal/services"
)

// SignatureHandler handles signature image upload and retrieval
type SignatureHandler struct {
	service *services.SignatureService
}

// NewSignatureHandler creates a new SignatureHandler
func NewSignatureHandler(service *services.SignatureService) *SignatureHandler {
	return &SignatureHandler{service: service}
}

// Get returns the current user's stored signature metadata
// @Summary Get my signature
// @Tags Signatures
// @Produce json
// @Success 200 {object} models.Signature
// @Failure 404 {object} map[string]string
// @Router /approvals/signature [get]
func (h *SignatureHandler) Get(c *gin.Context) {
	sig, err := h.service.Get(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No signature on file"})
			return
		}
		logrus.WithError(err).Error("Failed to load signature")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, sig)
}

// Upload stores or replaces the current user's signature image
// @Summary Upload signature image
// @Tags Signatures
// @Accept multipart/form-data
// @Produce json
// @Param signature formData file true "Signature image (png or jpeg, max 2 MiB)"
// @Success 200 {object} models.Signature
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /approvals/signature [post]
func (h *SignatureHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("signature")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrNoFile.Error()})
		return
	}

	sig, err := h.service.Upload(c.Request.Context(), middleware.CurrentUserID(c), fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoFile), errors.Is(err, services.ErrBadFileType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("Failed to store signature")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		}
		return
	}

	c.JSON(http.StatusOK, sig)
}

// Serve streams a stored signature image
// @Summary Download signature image
// @Tags Signatures
// @Produce image/png
// @Param filename path string true "Stored filename"
// @Success 200
// @Failure 404 {object} map[string]string
// @Router /approvals/uploads/signatures/{filename} [get]
func (h *SignatureHandler) Serve(c *gin.Context) {
	path, err := h.service.ResolvePath(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Signature not found"})
		return
	}
	c.File(path)
}
