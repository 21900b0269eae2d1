package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/auth"
	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidRole      = errors.New("role must be basicuser or admin")
	ErrInvalidStatus    = errors.New("status must be active or deactivated")
	ErrInvalidRoute     = errors.New("approval route is invalid")
	ErrInactiveApprover = errors.New("approvers must be active users")
)

// RouteEntry is one position in a form's approval routing.
type RouteEntry struct {
	Sequence   int       `json:"sequence" binding:"required,min=1"`
	ApproverID uuid.UUID `json:"approver_id" binding:"required"`
}

// AdminService covers user administration and approval routing.
type AdminService struct {
	users     repository.UserRepositoryInterface
	templates repository.TemplateRepositoryInterface
	sessions  *auth.SessionStore
	logger    *logrus.Entry
}

// NewAdminService creates a new AdminService
func NewAdminService(users repository.UserRepositoryInterface, templates repository.TemplateRepositoryInterface, sessions *auth.SessionStore) *AdminService {
	return &AdminService{
		users:     users,
		templates: templates,
		sessions:  sessions,
		logger:    logrus.WithField("component", "admin_service"),
	}
}

// ListUsers returns all users with pagination.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.users.ListUsers(ctx, limit, offset)
}

// UpdateUser changes a user's role and/or status. Deactivating a user also
// revokes their live sessions so the change takes effect immediately.
func (s *AdminService) UpdateUser(ctx context.Context, userID uuid.UUID, role, status *string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	deactivated := false
	if role != nil {
		switch *role {
		case models.RoleBasicUser, models.RoleAdmin:
			user.Role = *role
		default:
			return nil, ErrInvalidRole
		}
	}
	if status != nil {
		switch *status {
		case models.UserStatusActive:
			user.Status = *status
		case models.UserStatusDeactivated:
			deactivated = user.Status != models.UserStatusDeactivated
			user.Status = *status
		default:
			return nil, ErrInvalidStatus
		}
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if deactivated {
		if err := s.sessions.RevokeUser(ctx, user.ID.String()); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to revoke sessions for deactivated user")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
		"status":  user.Status,
	}).Info("User updated")

	return user, nil
}

// GetRoutes returns a form's approval routing in sequence order.
func (s *AdminService) GetRoutes(ctx context.Context, formCode string) ([]models.ApprovalRoute, error) {
	template, err := s.templates.GetTemplateByCode(ctx, formCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return s.templates.GetRoutes(ctx, template.ID)
}

// SetRoutes replaces a form's approval routing. Sequences must start at 1
// with no gaps or duplicates, and every approver must be an active user.
// In-flight requests keep the chain they were submitted under.
func (s *AdminService) SetRoutes(ctx context.Context, formCode string, entries []RouteEntry) ([]models.ApprovalRoute, error) {
	template, err := s.templates.GetTemplateByCode(ctx, formCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrInvalidRoute
	}

	sorted := make([]RouteEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })
	for i, entry := range sorted {
		if entry.Sequence != i+1 {
			return nil, ErrInvalidRoute
		}
	}

	routes := make([]models.ApprovalRoute, 0, len(sorted))
	for _, entry := range sorted {
		approver, err := s.users.GetUserByID(ctx, entry.ApproverID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInactiveApprover
			}
			return nil, err
		}
		if !approver.IsActive() {
			return nil, ErrInactiveApprover
		}
		routes = append(routes, models.ApprovalRoute{
			FormTemplateID: template.ID,
			Sequence:       entry.Sequence,
			ApproverID:     entry.ApproverID,
		})
	}

	if err := s.templates.ReplaceRoutes(ctx, template.ID, routes); err != nil {
		return nil, fmt.Errorf("failed to replace approval routes: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"form_code": formCode,
		"steps":     len(routes),
	}).Info("Approval routing updated")

	return s.templates.GetRoutes(ctx, template.ID)
}
