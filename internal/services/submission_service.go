package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"campus-approvals/internal/events"
	"campus-approvals/internal/forms"
	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

var (
	ErrTemplateNotFound = errors.New("form template not found")
	ErrRequestNotFound  = errors.New("request not found")
	ErrNotRequester     = errors.New("request belongs to another user")
	ErrNotEditable      = errors.New("request can no longer be edited")
	ErrNotReturned      = errors.New("request is not awaiting resubmission")
	ErrInvalidAction    = errors.New("action must be draft or submit")
	ErrNoApprovalRoute  = errors.New("form has no approval route configured")
)

// Submit actions accepted by Create and Edit.
const (
	ActionDraft  = "draft"
	ActionSubmit = "submit"
)

// SubmissionService owns the requester side of the request lifecycle:
// drafting, submitting, editing drafts and resubmitting returned requests.
type SubmissionService struct {
	requests  repository.RequestRepositoryInterface
	templates repository.TemplateRepositoryInterface
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(requests repository.RequestRepositoryInterface, templates repository.TemplateRepositoryInterface, publisher *events.Publisher) *SubmissionService {
	return &SubmissionService{
		requests:  requests,
		templates: templates,
		publisher: publisher,
		logger:    logrus.WithField("component", "submission_service"),
	}
}

// ListForms returns every form available for submission.
func (s *SubmissionService) ListForms(ctx context.Context) ([]models.FormTemplate, error) {
	return s.templates.ListTemplates(ctx)
}

// GetForm returns a single form template by its code.
func (s *SubmissionService) GetForm(ctx context.Context, formCode string) (*models.FormTemplate, error) {
	template, err := s.templates.GetTemplateByCode(ctx, formCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

// Create files a new request for the given form. action decides whether it
// stays a draft or enters the approval chain immediately.
func (s *SubmissionService) Create(ctx context.Context, requester *models.User, formCode, action string, sub forms.Submission) (*models.Request, error) {
	if action != ActionDraft && action != ActionSubmit {
		return nil, ErrInvalidAction
	}

	template, err := s.GetForm(ctx, formCode)
	if err != nil {
		return nil, err
	}

	schema, err := forms.ParseSchema(template.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse form schema: %w", err)
	}

	now := time.Now().UTC()
	data := forms.Coerce(schema, sub, now)
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form data: %w", err)
	}

	request := &models.Request{
		FormTemplateID: template.ID,
		RequesterID:    requester.ID,
		Status:         models.StatusDraft,
		FormData:       datatypes.JSON(dataJSON),
	}

	err = s.requests.WithTransaction(ctx, func(tx repository.RequestRepositoryInterface) error {
		if err := tx.CreateRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		s.audit(ctx, tx, request.ID, models.AuditEventCreated, &requester.ID, nil)

		if action == ActionSubmit {
			return s.enterPending(ctx, tx, request, template, requester.ID, models.AuditEventSubmitted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if action == ActionSubmit {
		s.publishEvent(events.RequestSubmitted, request, template.FormCode, requester.ID)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"form_code":  template.FormCode,
		"status":     request.Status,
	}).Info("Request created")

	return request, nil
}

// Edit updates a draft's form data. Only the requester may edit, and only
// while the request is still a draft. action=submit moves it into the chain.
func (s *SubmissionService) Edit(ctx context.Context, requester *models.User, requestID uuid.UUID, action string, sub forms.Submission) (*models.Request, error) {
	if action != ActionDraft && action != ActionSubmit {
		return nil, ErrInvalidAction
	}

	request, err := s.getOwned(ctx, requester, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusDraft {
		return nil, ErrNotEditable
	}

	template := request.FormTemplate
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	schema, err := forms.ParseSchema(template.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse form schema: %w", err)
	}

	data := forms.Coerce(schema, sub, time.Now().UTC())
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form data: %w", err)
	}
	request.FormData = datatypes.JSON(dataJSON)

	err = s.requests.WithTransaction(ctx, func(tx repository.RequestRepositoryInterface) error {
		if err := tx.SaveRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}
		s.audit(ctx, tx, request.ID, models.AuditEventEdited, &requester.ID, nil)

		if action == ActionSubmit {
			return s.enterPending(ctx, tx, request, template, requester.ID, models.AuditEventSubmitted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if action == ActionSubmit {
		s.publishEvent(events.RequestSubmitted, request, template.FormCode, requester.ID)
	}

	return request, nil
}

// Resubmit puts a returned request back into the approval chain. The chain
// is rebuilt from the current routing so every approver signs off again.
func (s *SubmissionService) Resubmit(ctx context.Context, requester *models.User, requestID uuid.UUID, sub forms.Submission) (*models.Request, error) {
	request, err := s.getOwned(ctx, requester, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusReturned {
		return nil, ErrNotReturned
	}

	template := request.FormTemplate
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	schema, err := forms.ParseSchema(template.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse form schema: %w", err)
	}

	data := forms.Coerce(schema, sub, time.Now().UTC())
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form data: %w", err)
	}
	request.FormData = datatypes.JSON(dataJSON)

	err = s.requests.WithTransaction(ctx, func(tx repository.RequestRepositoryInterface) error {
		if err := tx.SaveRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}
		return s.enterPending(ctx, tx, request, template, requester.ID, models.AuditEventResubmitted)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.RequestResubmitted, request, template.FormCode, requester.ID)

	s.logger.WithField("request_id", request.ID).Info("Request resubmitted")
	return request, nil
}

// Get returns a request visible to the viewer. Requesters see their own,
// admins see everything, and approvers see requests they sit in the chain of.
func (s *SubmissionService) Get(ctx context.Context, viewer *models.User, requestID uuid.UUID) (*models.Request, error) {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if request.RequesterID == viewer.ID || viewer.IsAdmin() {
		return request, nil
	}

	isApprover, err := s.requests.IsApproverForRequest(ctx, request.ID, viewer.ID)
	if err != nil {
		return nil, err
	}
	if !isApprover {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

// ListMine returns the viewer's own requests, newest first.
func (s *SubmissionService) ListMine(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]models.Request, int64, error) {
	return s.requests.ListRequestsByRequester(ctx, requesterID, limit, offset)
}

// enterPending stamps the submission time, materializes the approval chain
// from the form's routing and moves the request into pending.
func (s *SubmissionService) enterPending(ctx context.Context, tx repository.RequestRepositoryInterface, request *models.Request, template *models.FormTemplate, actorID uuid.UUID, auditEvent string) error {
	routes, err := s.templates.GetRoutes(ctx, template.ID)
	if err != nil {
		return fmt.Errorf("failed to load approval routes: %w", err)
	}
	if len(routes) == 0 {
		return ErrNoApprovalRoute
	}

	steps := buildSteps(request.ID, routes)
	if err := tx.ReplaceSteps(ctx, request.ID, steps); err != nil {
		return fmt.Errorf("failed to materialize approval chain: %w", err)
	}

	now := time.Now().UTC()
	request.SubmittedAt = &now
	request.Status = models.StatusPending
	if err := tx.SaveRequest(ctx, request); err != nil {
		return fmt.Errorf("failed to move request to pending: %w", err)
	}

	s.audit(ctx, tx, request.ID, auditEvent, &actorID, map[string]interface{}{
		"chain_length": len(steps),
	})
	return nil
}

// buildSteps derives the pending approval chain from the routing in
// sequence order.
func buildSteps(requestID uuid.UUID, routes []models.ApprovalRoute) []models.ApprovalStep {
	steps := make([]models.ApprovalStep, 0, len(routes))
	for _, route := range routes {
		steps = append(steps, models.ApprovalStep{
			RequestID:  requestID,
			Sequence:   route.Sequence,
			ApproverID: route.ApproverID,
			Status:     models.StepStatusPending,
		})
	}
	return steps
}

func (s *SubmissionService) getOwned(ctx context.Context, requester *models.User, requestID uuid.UUID) (*models.Request, error) {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if request.RequesterID != requester.ID {
		return nil, ErrNotRequester
	}
	return request, nil
}

func (s *SubmissionService) audit(ctx context.Context, tx repository.RequestRepositoryInterface, requestID uuid.UUID, eventType string, actorID *uuid.UUID, metadata map[string]interface{}) {
	writeAudit(ctx, tx, s.logger, requestID, eventType, actorID, metadata)
}

// publishEvent publishes async so slow NATS never delays the HTTP response.
func (s *SubmissionService) publishEvent(eventType string, request *models.Request, formCode string, actorID uuid.UUID) {
	if s.publisher == nil {
		return
	}

	event := events.RequestEvent{
		EventType:   eventType,
		RequestID:   request.ID.String(),
		FormCode:    formCode,
		RequesterID: request.RequesterID.String(),
		ActorID:     actorID.String(),
		Status:      request.Status,
	}

	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.publisher.PublishRequestEvent(publishCtx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish request event")
		}
	}()
}
