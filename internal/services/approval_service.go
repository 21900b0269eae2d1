package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/events"
	"campus-approvals/internal/forms"
	"campus-approvals/internal/latex"
	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

var (
	ErrNotApprover     = errors.New("user is not an approver for this request")
	ErrNotYourTurn     = errors.New("an earlier step in the chain is still pending")
	ErrRequestDecided  = errors.New("request is no longer awaiting this decision")
	ErrInvalidDecision = errors.New("decision must be approved, rejected or returned")
)

// ApprovalService owns the approver side of the lifecycle: the pending
// queue, decisions and the final document render.
type ApprovalService struct {
	requests  repository.RequestRepositoryInterface
	users     repository.UserRepositoryInterface
	renderer  latex.Renderer
	publisher *events.Publisher
	uploadDir string
	logger    *logrus.Entry
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(requests repository.RequestRepositoryInterface, users repository.UserRepositoryInterface, renderer latex.Renderer, publisher *events.Publisher, uploadDir string) *ApprovalService {
	return &ApprovalService{
		requests:  requests,
		users:     users,
		renderer:  renderer,
		publisher: publisher,
		uploadDir: uploadDir,
		logger:    logrus.WithField("component", "approval_service"),
	}
}

// ListPending returns the steps currently waiting on the given approver.
// A step only appears once every earlier step in its chain is approved.
func (s *ApprovalService) ListPending(ctx context.Context, approverID uuid.UUID, limit, offset int) ([]models.ApprovalStep, int64, error) {
	return s.requests.ListActionableSteps(ctx, approverID, limit, offset)
}

// Decide records the approver's decision on their step. Approving the last
// step approves the request and renders the final document; rejecting ends
// the request; returning hands it back to the requester for edits.
func (s *ApprovalService) Decide(ctx context.Context, approver *models.User, requestID uuid.UUID, decision, comment string) (*models.Request, error) {
	switch decision {
	case models.DecisionApproved, models.DecisionRejected, models.DecisionReturned:
	default:
		return nil, ErrInvalidDecision
	}

	var (
		request       *models.Request
		finalApproval bool
	)

	err := s.requests.WithTransaction(ctx, func(tx repository.RequestRepositoryInterface) error {
		var err error
		request, err = tx.GetRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if request.Status != models.StatusPending {
			return ErrRequestDecided
		}

		step, err := actionableStep(request, approver.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		step.Status = decision
		step.Comment = comment
		step.ActedAt = &now
		if err := tx.SaveStep(ctx, step); err != nil {
			return fmt.Errorf("failed to save decision: %w", err)
		}

		switch decision {
		case models.DecisionApproved:
			if chainComplete(request.Steps) {
				finalApproval = true
				if err := tx.UpdateRequestStatus(ctx, request, models.StatusApproved); err != nil {
					return fmt.Errorf("failed to approve request: %w", err)
				}
			}
			s.audit(ctx, tx, request.ID, models.AuditEventApproved, &approver.ID, stepMetadata(step))
		case models.DecisionRejected:
			if err := tx.UpdateRequestStatus(ctx, request, models.StatusRejected); err != nil {
				return fmt.Errorf("failed to reject request: %w", err)
			}
			s.audit(ctx, tx, request.ID, models.AuditEventRejected, &approver.ID, stepMetadata(step))
		case models.DecisionReturned:
			if err := tx.UpdateRequestStatus(ctx, request, models.StatusReturned); err != nil {
				return fmt.Errorf("failed to return request: %w", err)
			}
			s.audit(ctx, tx, request.ID, models.AuditEventReturned, &approver.ID, stepMetadata(step))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	formCode := ""
	if request.FormTemplate != nil {
		formCode = request.FormTemplate.FormCode
	}

	switch decision {
	case models.DecisionApproved:
		if finalApproval {
			s.publishEvent(events.RequestApproved, request, formCode, approver.ID, comment)
			s.renderApproved(ctx, request, approver.ID)
		}
	case models.DecisionRejected:
		s.publishEvent(events.RequestRejected, request, formCode, approver.ID, comment)
	case models.DecisionReturned:
		s.publishEvent(events.RequestReturned, request, formCode, approver.ID, comment)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"decision":   decision,
		"status":     request.Status,
	}).Info("Decision recorded")

	return request, nil
}

// History returns the audit trail for a request the viewer may see.
func (s *ApprovalService) History(ctx context.Context, viewer *models.User, requestID uuid.UUID) ([]models.RequestAuditLog, error) {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if request.RequesterID != viewer.ID && !viewer.IsAdmin() {
		isApprover, err := s.requests.IsApproverForRequest(ctx, request.ID, viewer.ID)
		if err != nil {
			return nil, err
		}
		if !isApprover {
			return nil, ErrRequestNotFound
		}
	}

	return s.requests.GetRequestHistory(ctx, requestID)
}

// actionableStep finds the approver's pending step and enforces strict
// sequence order over the chain.
func actionableStep(request *models.Request, approverID uuid.UUID) (*models.ApprovalStep, error) {
	var own *models.ApprovalStep
	inChain := false
	for i := range request.Steps {
		step := &request.Steps[i]
		if step.ApproverID != approverID {
			continue
		}
		inChain = true
		if step.Status == models.StepStatusPending {
			own = step
			break
		}
	}
	if !inChain {
		return nil, ErrNotApprover
	}
	if own == nil {
		return nil, ErrRequestDecided
	}

	for i := range request.Steps {
		step := &request.Steps[i]
		if step.Sequence < own.Sequence && step.Status != models.StepStatusApproved {
			return nil, ErrNotYourTurn
		}
	}
	return own, nil
}

// chainComplete reports whether every step in the chain is approved.
func chainComplete(steps []models.ApprovalStep) bool {
	for _, step := range steps {
		if step.Status != models.StepStatusApproved {
			return false
		}
	}
	return len(steps) > 0
}

// renderApproved produces the final PDF. A failed render is recorded but
// never rolls back the approval itself.
func (s *ApprovalService) renderApproved(ctx context.Context, request *models.Request, actorID uuid.UUID) {
	if s.renderer == nil {
		return
	}

	input, err := s.renderInput(ctx, request)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", request.ID).Error("Failed to prepare render input")
		s.auditDirect(ctx, request.ID, models.AuditEventRenderFailed, &actorID, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	pdfPath, err := s.renderer.Render(ctx, input)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", request.ID).Error("Failed to render request document")
		meta := map[string]interface{}{"error": err.Error()}
		var buildErr *latex.BuildError
		if errors.As(err, &buildErr) {
			meta["build_log"] = buildErr.Log
		}
		s.auditDirect(ctx, request.ID, models.AuditEventRenderFailed, &actorID, meta)
		return
	}

	request.PDFPath = pdfPath
	if err := s.requests.SaveRequest(ctx, request); err != nil {
		s.logger.WithError(err).WithField("request_id", request.ID).Error("Failed to record rendered document path")
		return
	}
	s.auditDirect(ctx, request.ID, models.AuditEventRendered, &actorID, map[string]interface{}{
		"pdf_path": pdfPath,
	})

	formCode := ""
	if request.FormTemplate != nil {
		formCode = request.FormTemplate.FormCode
	}
	s.publishEvent(events.RequestRendered, request, formCode, actorID, "")
}

// renderInput flattens the request into the renderer's shape, collecting the
// stored signature of the requester and of every approver that has one.
func (s *ApprovalService) renderInput(ctx context.Context, request *models.Request) (latex.RenderInput, error) {
	if request.FormTemplate == nil {
		return latex.RenderInput{}, errors.New("request is missing its form template")
	}

	var data map[string]interface{}
	if len(request.FormData) > 0 {
		if err := json.Unmarshal(request.FormData, &data); err != nil {
			return latex.RenderInput{}, fmt.Errorf("failed to parse form data: %w", err)
		}
	}

	var order []string
	if schema, err := forms.ParseSchema(request.FormTemplate.Fields); err == nil {
		order = schema.Keys()
	}

	requesterName := "Unknown"
	if request.Requester != nil {
		requesterName = request.Requester.Name
	}

	submittedAt := time.Now().UTC()
	if request.SubmittedAt != nil {
		submittedAt = *request.SubmittedAt
	}

	signerIDs := []uuid.UUID{request.RequesterID}
	for _, step := range request.Steps {
		signerIDs = append(signerIDs, step.ApproverID)
	}

	var sigPaths []string
	for _, id := range signerIDs {
		sig, err := s.users.GetSignatureByUserID(ctx, id)
		if err != nil {
			continue
		}
		sigPaths = append(sigPaths, filepath.Join(s.uploadDir, sig.ImagePath))
	}

	return latex.RenderInput{
		FormCode:       request.FormTemplate.FormCode,
		RequestID:      request.ID.String(),
		RequesterName:  requesterName,
		SubmittedAt:    submittedAt,
		Fields:         latex.FieldsFromMap(data, order),
		SignaturePaths: sigPaths,
	}, nil
}

func stepMetadata(step *models.ApprovalStep) map[string]interface{} {
	meta := map[string]interface{}{
		"sequence": step.Sequence,
	}
	if step.Comment != "" {
		meta["comment"] = step.Comment
	}
	return meta
}

func (s *ApprovalService) audit(ctx context.Context, tx repository.RequestRepositoryInterface, requestID uuid.UUID, eventType string, actorID *uuid.UUID, metadata map[string]interface{}) {
	writeAudit(ctx, tx, s.logger, requestID, eventType, actorID, metadata)
}

func (s *ApprovalService) auditDirect(ctx context.Context, requestID uuid.UUID, eventType string, actorID *uuid.UUID, metadata map[string]interface{}) {
	writeAudit(ctx, s.requests, s.logger, requestID, eventType, actorID, metadata)
}

func (s *ApprovalService) publishEvent(eventType string, request *models.Request, formCode string, actorID uuid.UUID, comment string) {
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
		Comment:     comment,
	}

	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.publisher.PublishRequestEvent(publishCtx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish request event")
		}
	}()
}
