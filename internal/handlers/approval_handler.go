package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/middleware"
	"campus-approvals/internal/services"
)

// ApprovalHandler handles the approver side of the request lifecycle
type ApprovalHandler struct {
	service *services.ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(service *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// decideInput is the decide endpoint's request body.
type decideInput struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

// ListPending lists requests waiting on the current user's decision
// @Summary List pending approvals
// @Tags Approvals
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	limit, offset := pagination(c)

	steps, total, err := h.service.ListPending(c.Request.Context(), middleware.CurrentUserID(c), limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list pending approvals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   steps,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Decide records a decision on the current user's step
// @Summary Decide on a request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param decision body decideInput true "Decision"
// @Success 200 {object} models.Request
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /approvals/request/{id}/decide [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	user := middleware.CurrentUser(c)
	requestID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input decideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.Decide(c.Request.Context(), user, requestID, input.Decision, input.Comment)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDecision):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotApprover):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotYourTurn),
			errors.Is(err, services.ErrRequestDecided):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("Failed to record decision")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		}
		return
	}

	c.JSON(http.StatusOK, request)
}

// History returns a request's audit trail
// @Summary Get request history
// @Tags Approvals
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /approvals/request/{id}/history [get]
func (h *ApprovalHandler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)
	requestID, ok := parseIDParam(c)
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), user, requestID)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logrus.WithError(err).Error("Failed to load request history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
