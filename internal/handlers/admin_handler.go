package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/services"
)

// AdminHandler handles user administration and approval routing
type AdminHandler struct {
	service *services.AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service *services.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// updateUserInput is the user update request body.
type updateUserInput struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// setRoutesInput is the routing replacement request body.
type setRoutesInput struct {
	Routes []services.RouteEntry `json:"routes" binding:"required"`
}

// ListUsers lists all users
// @Summary List users
// @Tags Admin
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)

	users, total, err := h.service.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateUser changes a user's role or status
// @Summary Update user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body updateUserInput true "Changes"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var input updateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Role == nil && input.Status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), userID, input.Role, input.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidRole), errors.Is(err, services.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("Failed to update user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetRoutes returns a form's approval routing
// @Summary Get approval routing
// @Tags Admin
// @Produce json
// @Param form_code path string true "Form code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /admin/routes/{form_code} [get]
func (h *AdminHandler) GetRoutes(c *gin.Context) {
	routes, err := h.service.GetRoutes(c.Request.Context(), c.Param("form_code"))
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logrus.WithError(err).Error("Failed to load approval routing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": routes})
}

// SetRoutes replaces a form's approval routing
// @Summary Replace approval routing
// @Tags Admin
// @Accept json
// @Produce json
// @Param form_code path string true "Form code"
// @Param routes body setRoutesInput true "New routing"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/routes/{form_code} [put]
func (h *AdminHandler) SetRoutes(c *gin.Context) {
	var input setRoutesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	routes, err := h.service.SetRoutes(c.Request.Context(), c.Param("form_code"), input.Routes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTemplateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidRoute), errors.Is(err, services.ErrInactiveApprover):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("Failed to replace approval routing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": routes})
}
