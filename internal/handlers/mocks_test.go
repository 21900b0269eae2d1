package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepositoryInterface = (*MockUserRepository)(nil)

func (m *MockUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) GetSignatureByUserID(ctx context.Context, userID uuid.UUID) (*models.Signature, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Signature), args.Error(1)
}

func (m *MockUserRepository) UpsertSignature(ctx context.Context, sig *models.Signature) error {
	args := m.Called(ctx, sig)
	return args.Error(0)
}

// MockTemplateRepository is a mock implementation of TemplateRepositoryInterface
type MockTemplateRepository struct {
	mock.Mock
}

var _ repository.TemplateRepositoryInterface = (*MockTemplateRepository)(nil)

func (m *MockTemplateRepository) GetTemplateByCode(ctx context.Context, formCode string) (*models.FormTemplate, error) {
	args := m.Called(ctx, formCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormTemplate), args.Error(1)
}

func (m *MockTemplateRepository) ListTemplates(ctx context.Context) ([]models.FormTemplate, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FormTemplate), args.Error(1)
}

func (m *MockTemplateRepository) SeedTemplate(ctx context.Context, template *models.FormTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) GetRoutes(ctx context.Context, templateID uuid.UUID) ([]models.ApprovalRoute, error) {
	args := m.Called(ctx, templateID)
	return args.Get(0).([]models.ApprovalRoute), args.Error(1)
}

func (m *MockTemplateRepository) ReplaceRoutes(ctx context.Context, templateID uuid.UUID, routes []models.ApprovalRoute) error {
	args := m.Called(ctx, templateID, routes)
	return args.Error(0)
}

// MockRequestRepository is a mock implementation of RequestRepositoryInterface
type MockRequestRepository struct {
	mock.Mock
}

var _ repository.RequestRepositoryInterface = (*MockRequestRepository)(nil)

func (m *MockRequestRepository) CreateRequest(ctx context.Context, request *models.Request) error {
	args := m.Called(ctx, request)
	if args.Error(0) == nil && request.ID == uuid.Nil {
		request.ID = uuid.New()
		request.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockRequestRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestRepository) SaveRequest(ctx context.Context, request *models.Request) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) UpdateRequestStatus(ctx context.Context, request *models.Request, newStatus string) error {
	args := m.Called(ctx, request, newStatus)
	if args.Error(0) == nil {
		request.Status = newStatus
	}
	return args.Error(0)
}

func (m *MockRequestRepository) ListRequestsByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]models.Request, int64, error) {
	args := m.Called(ctx, requesterID, limit, offset)
	return args.Get(0).([]models.Request), args.Get(1).(int64), args.Error(2)
}

func (m *MockRequestRepository) CreateSteps(ctx context.Context, steps []models.ApprovalStep) error {
	args := m.Called(ctx, steps)
	return args.Error(0)
}

func (m *MockRequestRepository) ReplaceSteps(ctx context.Context, requestID uuid.UUID, steps []models.ApprovalStep) error {
	args := m.Called(ctx, requestID, steps)
	return args.Error(0)
}

func (m *MockRequestRepository) SaveStep(ctx context.Context, step *models.ApprovalStep) error {
	args := m.Called(ctx, step)
	return args.Error(0)
}

func (m *MockRequestRepository) ListActionableSteps(ctx context.Context, approverID uuid.UUID, limit, offset int) ([]models.ApprovalStep, int64, error) {
	args := m.Called(ctx, approverID, limit, offset)
	return args.Get(0).([]models.ApprovalStep), args.Get(1).(int64), args.Error(2)
}

func (m *MockRequestRepository) IsApproverForRequest(ctx context.Context, requestID, approverID uuid.UUID) (bool, error) {
	args := m.Called(ctx, requestID, approverID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) CreateAuditLog(ctx context.Context, log *models.RequestAuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockRequestRepository) GetRequestHistory(ctx context.Context, requestID uuid.UUID) ([]models.RequestAuditLog, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]models.RequestAuditLog), args.Error(1)
}

func (m *MockRequestRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.RequestRepositoryInterface) error) error {
	return fn(m)
}
