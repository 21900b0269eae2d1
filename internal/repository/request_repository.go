package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campus-approvals/internal/models"
)

// RequestRepositoryInterface defines database operations for requests,
// approval steps and the audit trail
type RequestRepositoryInterface interface {
	CreateRequest(ctx context.Context, request *models.Request) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	SaveRequest(ctx context.Context, request *models.Request) error
	UpdateRequestStatus(ctx context.Context, request *models.Request, newStatus string) error
	ListRequestsByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]models.Request, int64, error)
	CreateSteps(ctx context.Context, steps []models.ApprovalStep) error
	ReplaceSteps(ctx context.Context, requestID uuid.UUID, steps []models.ApprovalStep) error
	SaveStep(ctx context.Context, step *models.ApprovalStep) error
	ListActionableSteps(ctx context.Context, approverID uuid.UUID, limit, offset int) ([]models.ApprovalStep, int64, error)
	IsApproverForRequest(ctx context.Context, requestID, approverID uuid.UUID) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.RequestAuditLog) error
	GetRequestHistory(ctx context.Context, requestID uuid.UUID) ([]models.RequestAuditLog, error)
	WithTransaction(ctx context.Context, fn func(txRepo RequestRepositoryInterface) error) error
}

// RequestRepository handles database operations for requests and their
// approval chains
type RequestRepository struct {
	db *gorm.DB
}

var _ RequestRepositoryInterface = (*RequestRepository)(nil)

// NewRequestRepository creates a new RequestRepository
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// CreateRequest creates a new request
func (r *RequestRepository) CreateRequest(ctx context.Context, request *models.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequestByID retrieves a request with its template, requester and steps
// in sequence order
func (r *RequestRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).
		Preload("FormTemplate").
		Preload("Requester").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_steps.sequence ASC")
		}).
		Preload("Steps.Approver").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// SaveRequest persists changes to an existing request
func (r *RequestRepository) SaveRequest(ctx context.Context, request *models.Request) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// UpdateRequestStatus updates the status column only, guarded by the current
// status so that two concurrent deciders cannot both land a terminal state
func (r *RequestRepository) UpdateRequestStatus(ctx context.Context, request *models.Request, newStatus string) error {
	result := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND status = ?", request.ID, request.Status).
		Update("status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	request.Status = newStatus
	return nil
}

// ListRequestsByRequester retrieves requests submitted by a specific user
func (r *RequestRepository) ListRequestsByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]models.Request, int64, error) {
	var requests []models.Request
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("requester_id = ?", requesterID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("FormTemplate").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error

	return requests, total, err
}

// CreateSteps inserts a materialized approval chain
func (r *RequestRepository) CreateSteps(ctx context.Context, steps []models.ApprovalStep) error {
	if len(steps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&steps).Error
}

// ReplaceSteps drops a request's chain and installs a fresh one atomically.
// Used on resubmission of a returned request.
func (r *RequestRepository) ReplaceSteps(ctx context.Context, requestID uuid.UUID, steps []models.ApprovalStep) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", requestID).
			Delete(&models.ApprovalStep{}).Error; err != nil {
			return err
		}
		if len(steps) == 0 {
			return nil
		}
		return tx.Create(&steps).Error
	})
}

// SaveStep persists changes to an approval step
func (r *RequestRepository) SaveStep(ctx context.Context, step *models.ApprovalStep) error {
	return r.db.WithContext(ctx).Save(step).Error
}

// ListActionableSteps retrieves the steps awaiting a given approver where
// every prior-sequence step of the same request is already approved, i.e.
// the requests where it is this approver's turn to act
func (r *RequestRepository) ListActionableSteps(ctx context.Context, approverID uuid.UUID, limit, offset int) ([]models.ApprovalStep, int64, error) {
	var steps []models.ApprovalStep
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ApprovalStep{}).
		Joins("JOIN requests ON requests.id = approval_steps.request_id").
		Where("approval_steps.approver_id = ?", approverID).
		Where("approval_steps.status = ?", models.StepStatusPending).
		Where("requests.status = ?", models.StatusPending).
		Where(`NOT EXISTS (
			SELECT 1 FROM approval_steps prior
			WHERE prior.request_id = approval_steps.request_id
			  AND prior.sequence < approval_steps.sequence
			  AND prior.status <> ?
		)`, models.StepStatusApproved)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Request").
		Preload("Request.FormTemplate").
		Preload("Request.Requester").
		Order("approval_steps.created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&steps).Error

	return steps, total, err
}

// IsApproverForRequest reports whether a user holds any step in the chain
func (r *RequestRepository) IsApproverForRequest(ctx context.Context, requestID, approverID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ApprovalStep{}).
		Where("request_id = ? AND approver_id = ?", requestID, approverID).
		Count(&count).Error
	return count > 0, err
}

// CreateAuditLog creates an audit log entry
func (r *RequestRepository) CreateAuditLog(ctx context.Context, log *models.RequestAuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetRequestHistory retrieves audit history for a request
func (r *RequestRepository) GetRequestHistory(ctx context.Context, requestID uuid.UUID) ([]models.RequestAuditLog, error) {
	var logs []models.RequestAuditLog
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// WithTransaction runs fn against a repository bound to a single transaction
func (r *RequestRepository) WithTransaction(ctx context.Context, fn func(txRepo RequestRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RequestRepository{db: tx})
	})
}
