package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

var (
	ErrUserDeactivated = errors.New("user account is deactivated")
)

// IdentityService resolves externally authenticated identities to User rows.
type IdentityService struct {
	users repository.UserRepositoryInterface
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(users repository.UserRepositoryInterface) *IdentityService {
	return &IdentityService{users: users}
}

// Provision is the idempotent upsert run after every successful external
// authentication, keyed on email case-insensitively. A first login creates
// an active basicuser; later logins refresh the display name and record the
// external identity id when it was missing.
func (s *IdentityService) Provision(ctx context.Context, oid, name, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("authenticated identity has no email")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		user = &models.User{
			Name:   name,
			Email:  email,
			Role:   models.RoleBasicUser,
			Status: models.UserStatusActive,
		}
		if oid != "" {
			user.OID = &oid
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return user, nil
	}

	if !user.IsActive() {
		return nil, ErrUserDeactivated
	}

	changed := false
	if name != "" && user.Name != name {
		user.Name = name
		changed = true
	}
	if oid != "" && user.OID == nil {
		user.OID = &oid
		changed = true
	}
	if changed {
		if err := s.users.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return user, nil
}

// GetUser retrieves a user by id
func (s *IdentityService) GetUser(ctx context.Context, id string) (*models.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return s.users.GetUserByID(ctx, uid)
}
