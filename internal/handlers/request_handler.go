package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/forms"
	"campus-approvals/internal/middleware"
	"campus-approvals/internal/models"
	"campus-approvals/internal/services"
)

// RequestHandler handles form browsing and the requester side of requests
type RequestHandler struct {
	submissions *services.SubmissionService
	signatures  *services.SignatureService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(submissions *services.SubmissionService, signatures *services.SignatureService) *RequestHandler {
	return &RequestHandler{
		submissions: submissions,
		signatures:  signatures,
	}
}

// ListForms lists the forms available for submission
// @Summary List available forms
// @Tags Requests
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /approvals/forms [get]
func (h *RequestHandler) ListForms(c *gin.Context) {
	templates, err := h.submissions.ListForms(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list forms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// GetForm returns one form template with its field schema
// @Summary Get form template
// @Tags Requests
// @Produce json
// @Param form_code path string true "Form code"
// @Success 200 {object} models.FormTemplate
// @Failure 404 {object} map[string]string
// @Router /approvals/forms/{form_code} [get]
func (h *RequestHandler) GetForm(c *gin.Context) {
	template, err := h.submissions.GetForm(c.Request.Context(), c.Param("form_code"))
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logrus.WithError(err).Error("Failed to load form")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, template)
}

// New returns what a requester needs to start a submission: the available
// forms and whether a signature is already on file
// @Summary Start a new request
// @Tags Requests
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /approvals/new [get]
func (h *RequestHandler) New(c *gin.Context) {
	templates, err := h.submissions.ListForms(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list forms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	hasSignature := false
	if _, err := h.signatures.Get(c.Request.Context(), middleware.CurrentUserID(c)); err == nil {
		hasSignature = true
	}

	c.JSON(http.StatusOK, gin.H{
		"forms":         templates,
		"has_signature": hasSignature,
	})
}

// Submit files a new request for a form
// @Summary Submit or draft a request
// @Tags Requests
// @Accept multipart/form-data
// @Produce json
// @Param form_code path string true "Form code"
// @Param action formData string false "draft or submit" default(submit)
// @Success 201 {object} models.Request
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /approvals/submit/{form_code} [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sub, action := h.submission(c)

	request, err := h.submissions.Create(c.Request.Context(), user, c.Param("form_code"), action, sub)
	if err != nil {
		h.writeSubmissionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// GetForEdit returns a draft for editing
// @Summary Get draft for editing
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.Request
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /approvals/request/{id}/edit [get]
func (h *RequestHandler) GetForEdit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	requestID, ok := parseIDParam(c)
	if !ok {
		return
	}

	request, err := h.submissions.Get(c.Request.Context(), user, requestID)
	if err != nil {
		h.writeSubmissionError(c, err)
		return
	}
	if request.RequesterID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrRequestNotFound.Error()})
		return
	}
	if request.Status != models.StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": services.ErrNotEditable.Error()})
		return
	}
	c.JSON(http.StatusOK, request)
}

// Edit updates a draft
// @Summary Edit a draft
// @Tags Requests
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Request ID"
// @Param action formData string false "draft or submit" default(submit)
// @Success 200 {object} models.Request
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /approvals/request/{id}/edit [post]
func (h *RequestHandler) Edit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	requestID, ok := parseIDParam(c)
	if !ok {
		return
	}

	sub, action := h.submission(c)
	request, err := h.submissions.Edit(c.Request.Context(), user, requestID, action, sub)
	if err != nil {
		h.writeSubmissionError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// Resubmit sends a returned request back into the approval chain
// @Summary Resubmit a returned request
// @Tags Requests
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.Request
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /approvals/request/{id}/resubmit [post]
func (h *RequestHandler) Resubmit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	requestID, ok := parseIDParam(c)
	if !ok {
		return
	}

	sub, _ := h.submission(c)
	request, err := h.submissions.Resubmit(c.Request.Context(), user, requestID, sub)
	if err != nil {
		h.writeSubmissionError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListMine lists the current user's requests
// @Summary List my requests
// @Tags Requests
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /approvals/my_requests [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	limit, offset := pagination(c)

	requests, total, err := h.submissions.ListMine(c.Request.Context(), middleware.CurrentUserID(c), limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   requests,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Get returns one request visible to the viewer
// @Summary Get request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.Request
// @Failure 404 {object} map[string]string
// @Router /approvals/request/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	requestID, ok := parseIDParam(c)
	if !ok {
		return
	}

	request, err := h.submissions.Get(c.Request.Context(), user, requestID)
	if err != nil {
		h.writeSubmissionError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// submission gathers the posted form values and the user's stored signature
// filename, which file-typed fields reference.
func (h *RequestHandler) submission(c *gin.Context) (forms.Submission, string) {
	if err := c.Request.ParseMultipartForm(4 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		_ = c.Request.ParseForm()
	}

	sub := forms.Submission{Values: c.Request.PostForm}
	if sig, err := h.signatures.Get(c.Request.Context(), middleware.CurrentUserID(c)); err == nil {
		sub.StoredFile = sig.ImagePath
	}

	action := c.Request.PostForm.Get("action")
	if action == "" {
		action = services.ActionSubmit
	}
	return sub, action
}

func (h *RequestHandler) writeSubmissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotRequester):
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrRequestNotFound.Error()})
	case errors.Is(err, services.ErrNotEditable),
		errors.Is(err, services.ErrNotReturned):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrNoApprovalRoute):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Error("Request operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
