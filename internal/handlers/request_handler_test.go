package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"campus-approvals/internal/forms"
	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
	"campus-approvals/internal/services"
)

func testUser() *models.User {
	return &models.User{
		ID:     uuid.New(),
		Name:   "Pat Example",
		Email:  "pat@campus.edu",
		Role:   models.RoleBasicUser,
		Status: models.UserStatusActive,
	}
}

func testTemplate() *models.FormTemplate {
	schema := forms.Schema{
		{Name: "student_name", Type: forms.FieldText},
		{Name: "signature", Type: forms.FieldFile},
	}
	return &models.FormTemplate{
		ID:       uuid.New(),
		Name:     "Test Form",
		FormCode: "test_form",
		Fields:   schema.MustJSON(),
	}
}

// injectUser stands in for the auth middleware in handler tests.
func injectUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("current_user", user)
		c.Set("user_id", user.ID.String())
		c.Next()
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func requestRouterFor(user *models.User, requests *MockRequestRepository, templates *MockTemplateRepository, users *MockUserRepository) *gin.Engine {
	submissions := services.NewSubmissionService(requests, templates, nil)
	signatures := services.NewSignatureService(users, "uploads/signatures")
	handler := NewRequestHandler(submissions, signatures)

	r := newTestRouter()
	group := r.Group("/approvals", injectUser(user))
	group.GET("/forms", handler.ListForms)
	group.GET("/forms/:form_code", handler.GetForm)
	group.POST("/submit/:form_code", handler.Submit)
	group.GET("/my_requests", handler.ListMine)
	group.GET("/request/:id", handler.Get)
	group.GET("/request/:id/edit", handler.GetForEdit)
	group.POST("/request/:id/edit", handler.Edit)
	group.POST("/request/:id/resubmit", handler.Resubmit)
	return r
}

func postForm(r *gin.Engine, path string, values url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestSubmit_CreatesDraft(t *testing.T) {
	user := testUser()
	template := testTemplate()

	requests := new(MockRequestRepository)
	templates := new(MockTemplateRepository)
	users := new(MockUserRepository)

	templates.On("GetTemplateByCode", mock.Anything, "test_form").Return(template, nil)
	users.On("GetSignatureByUserID", mock.Anything, user.ID).Return(nil, repository.ErrNotFound)
	requests.On("CreateRequest", mock.Anything, mock.AnythingOfType("*models.Request")).Return(nil)
	requests.On("CreateAuditLog", mock.Anything, mock.AnythingOfType("*models.RequestAuditLog")).Return(nil)

	r := requestRouterFor(user, requests, templates, users)
	w := postForm(r, "/approvals/submit/test_form", url.Values{
		"student_name": {"Pat"},
		"action":       {"draft"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Request
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusDraft, created.Status)
}

func TestSubmit_UnknownForm(t *testing.T) {
	user := testUser()

	requests := new(MockRequestRepository)
	templates := new(MockTemplateRepository)
	users := new(MockUserRepository)

	templates.On("GetTemplateByCode", mock.Anything, "missing").Return(nil, repository.ErrNotFound)
	users.On("GetSignatureByUserID", mock.Anything, user.ID).Return(nil, repository.ErrNotFound)

	r := requestRouterFor(user, requests, templates, users)
	w := postForm(r, "/approvals/submit/missing", url.Values{"action": {"draft"}})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmit_NoRouteConfigured(t *testing.T) {
	user := testUser()
	template := testTemplate()

	requests := new(MockRequestRepository)
	templates := new(MockTemplateRepository)
	users := new(MockUserRepository)

	templates.On("GetTemplateByCode", mock.Anything, "test_form").Return(template, nil)
	templates.On("GetRoutes", mock.Anything, template.ID).Return([]models.ApprovalRoute{}, nil)
	users.On("GetSignatureByUserID", mock.Anything, user.ID).Return(nil, repository.ErrNotFound)
	requests.On("CreateRequest", mock.Anything, mock.AnythingOfType("*models.Request")).Return(nil)
	requests.On("CreateAuditLog", mock.Anything, mock.AnythingOfType("*models.RequestAuditLog")).Return(nil)

	r := requestRouterFor(user, requests, templates, users)
	w := postForm(r, "/approvals/submit/test_form", url.Values{"action": {"submit"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetForEdit_NonDraftConflicts(t *testing.T) {
	user := testUser()
	request := &models.Request{
		ID:          uuid.New(),
		RequesterID: user.ID,
		Status:      models.StatusPending,
	}

	requests := new(MockRequestRepository)
	users := new(MockUserRepository)
	requests.On("GetRequestByID", mock.Anything, request.ID).Return(request, nil)

	r := requestRouterFor(user, requests, new(MockTemplateRepository), users)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/approvals/request/"+request.ID.String()+"/edit", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGet_BadID(t *testing.T) {
	user := testUser()
	r := requestRouterFor(user, new(MockRequestRepository), new(MockTemplateRepository), new(MockUserRepository))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/approvals/request/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMine_ReturnsPagedData(t *testing.T) {
	user := testUser()

	requests := new(MockRequestRepository)
	requests.On("ListRequestsByRequester", mock.Anything, user.ID, 20, 0).
		Return([]models.Request{{ID: uuid.New(), RequesterID: user.ID, Status: models.StatusDraft}}, int64(1), nil)

	r := requestRouterFor(user, requests, new(MockTemplateRepository), new(MockUserRepository))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/approvals/my_requests", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data  []models.Request `json:"data"`
		Total int64            `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
	assert.Len(t, body.Data, 1)
}

func TestListForms_OK(t *testing.T) {
	user := testUser()

	templates := new(MockTemplateRepository)
	templates.On("ListTemplates", mock.Anything).Return([]models.FormTemplate{*testTemplate()}, nil)

	r := requestRouterFor(user, new(MockRequestRepository), templates, new(MockUserRepository))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/approvals/forms", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("test_form")))
}
