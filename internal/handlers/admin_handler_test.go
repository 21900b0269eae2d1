package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"campus-approvals/internal/auth"
	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
	"campus-approvals/internal/services"
)

func adminRouterFor(admin *models.User, users *MockUserRepository, templates *MockTemplateRepository) *gin.Engine {
	service := services.NewAdminService(users, templates, auth.NewSessionStore(nil))
	handler := NewAdminHandler(service)

	r := newTestRouter()
	group := r.Group("/admin", injectUser(admin))
	group.GET("/users", handler.ListUsers)
	group.PATCH("/users/:id", handler.UpdateUser)
	group.GET("/routes/:form_code", handler.GetRoutes)
	group.PUT("/routes/:form_code", handler.SetRoutes)
	return r
}

func adminUser() *models.User {
	u := testUser()
	u.Role = models.RoleAdmin
	return u
}

func patchJSON(r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateUser_PromotesToAdmin(t *testing.T) {
	target := testUser()

	users := new(MockUserRepository)
	users.On("GetUserByID", mock.Anything, target.ID).Return(target, nil)
	users.On("SaveUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin
	})).Return(nil)

	r := adminRouterFor(adminUser(), users, new(MockTemplateRepository))
	w := patchJSON(r, "/admin/users/"+target.ID.String(), map[string]string{"role": "admin"})

	assert.Equal(t, http.StatusOK, w.Code)
	users.AssertExpectations(t)
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	target := testUser()

	users := new(MockUserRepository)
	users.On("GetUserByID", mock.Anything, target.ID).Return(target, nil)

	r := adminRouterFor(adminUser(), users, new(MockTemplateRepository))
	w := patchJSON(r, "/admin/users/"+target.ID.String(), map[string]string{"role": "superuser"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUser_EmptyBody(t *testing.T) {
	r := adminRouterFor(adminUser(), new(MockUserRepository), new(MockTemplateRepository))
	w := patchJSON(r, "/admin/users/"+uuid.New().String(), map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUser_NotFound(t *testing.T) {
	missing := uuid.New()

	users := new(MockUserRepository)
	users.On("GetUserByID", mock.Anything, missing).Return(nil, repository.ErrNotFound)

	r := adminRouterFor(adminUser(), users, new(MockTemplateRepository))
	w := patchJSON(r, "/admin/users/"+missing.String(), map[string]string{"status": "deactivated"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers_OK(t *testing.T) {
	users := new(MockUserRepository)
	users.On("ListUsers", mock.Anything, 20, 0).Return([]models.User{*testUser()}, int64(1), nil)

	r := adminRouterFor(adminUser(), users, new(MockTemplateRepository))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Total int64 `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
}

func TestSetRoutes_ReplacesChain(t *testing.T) {
	template := testTemplate()
	approver := testUser()

	users := new(MockUserRepository)
	users.On("GetUserByID", mock.Anything, approver.ID).Return(approver, nil)

	templates := new(MockTemplateRepository)
	templates.On("GetTemplateByCode", mock.Anything, template.FormCode).Return(template, nil)
	templates.On("ReplaceRoutes", mock.Anything, template.ID, mock.AnythingOfType("[]models.ApprovalRoute")).Return(nil)
	templates.On("GetRoutes", mock.Anything, template.ID).
		Return([]models.ApprovalRoute{{FormTemplateID: template.ID, Sequence: 1, ApproverID: approver.ID}}, nil)

	r := adminRouterFor(adminUser(), users, templates)

	payload := map[string]interface{}{
		"routes": []map[string]interface{}{
			{"sequence": 1, "approver_id": approver.ID},
		},
	}
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/routes/"+template.FormCode, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	templates.AssertExpectations(t)
}

func TestSetRoutes_RejectsSequenceGap(t *testing.T) {
	template := testTemplate()

	templates := new(MockTemplateRepository)
	templates.On("GetTemplateByCode", mock.Anything, template.FormCode).Return(template, nil)

	r := adminRouterFor(adminUser(), new(MockUserRepository), templates)

	payload := map[string]interface{}{
		"routes": []map[string]interface{}{
			{"sequence": 1, "approver_id": uuid.New()},
			{"sequence": 3, "approver_id": uuid.New()},
		},
	}
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/routes/"+template.FormCode, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRoutes_UnknownForm(t *testing.T) {
	templates := new(MockTemplateRepository)
	templates.On("GetTemplateByCode", mock.Anything, "no_such_form").Return(nil, repository.ErrNotFound)

	r := adminRouterFor(adminUser(), new(MockUserRepository), templates)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/routes/no_such_form", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
