package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

func TestProvision_CreatesFirstLogin(t *testing.T) {
	ctx := context.Background()

	mockUsers := new(MockUserRepository)
	service := NewIdentityService(mockUsers)

	mockUsers.On("GetUserByEmail", ctx, "new@campus.edu").Return(nil, repository.ErrNotFound)
	mockUsers.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "new@campus.edu" &&
			u.Role == models.RoleBasicUser &&
			u.Status == models.UserStatusActive &&
			u.OID != nil && *u.OID == "oid-123"
	})).Return(nil)

	user, err := service.Provision(ctx, "oid-123", "New Person", "new@campus.edu")

	assert.NoError(t, err)
	assert.Equal(t, "New Person", user.Name)
	mockUsers.AssertExpectations(t)
}

func TestProvision_EmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	existing := testUser()

	mockUsers := new(MockUserRepository)
	service := NewIdentityService(mockUsers)

	// The lookup must fold the provider-supplied address to lower case.
	mockUsers.On("GetUserByEmail", ctx, "pat@campus.edu").Return(existing, nil)

	user, err := service.Provision(ctx, "", existing.Name, "  Pat@Campus.EDU ")

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	mockUsers.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestProvision_RefreshesNameAndOID(t *testing.T) {
	ctx := context.Background()
	existing := testUser()

	mockUsers := new(MockUserRepository)
	service := NewIdentityService(mockUsers)

	mockUsers.On("GetUserByEmail", ctx, existing.Email).Return(existing, nil)
	mockUsers.On("SaveUser", ctx, existing).Return(nil)

	user, err := service.Provision(ctx, "oid-456", "Pat Renamed", existing.Email)

	assert.NoError(t, err)
	assert.Equal(t, "Pat Renamed", user.Name)
	assert.Equal(t, "oid-456", *user.OID)
	mockUsers.AssertExpectations(t)
}

func TestProvision_NoChangeSkipsSave(t *testing.T) {
	ctx := context.Background()
	existing := testUser()

	mockUsers := new(MockUserRepository)
	service := NewIdentityService(mockUsers)

	mockUsers.On("GetUserByEmail", ctx, existing.Email).Return(existing, nil)

	_, err := service.Provision(ctx, "", existing.Name, existing.Email)

	assert.NoError(t, err)
	mockUsers.AssertNotCalled(t, "SaveUser", mock.Anything, mock.Anything)
}

func TestProvision_RejectsDeactivated(t *testing.T) {
	ctx := context.Background()
	existing := testUser()
	existing.Status = models.UserStatusDeactivated

	mockUsers := new(MockUserRepository)
	service := NewIdentityService(mockUsers)

	mockUsers.On("GetUserByEmail", ctx, existing.Email).Return(existing, nil)

	_, err := service.Provision(ctx, "", existing.Name, existing.Email)

	assert.ErrorIs(t, err, ErrUserDeactivated)
}

func TestProvision_RequiresEmail(t *testing.T) {
	service := NewIdentityService(new(MockUserRepository))

	_, err := service.Provision(context.Background(), "oid", "No Email", "  ")

	assert.Error(t, err)
}

func TestGetUser_BadID(t *testing.T) {
	service := NewIdentityService(new(MockUserRepository))

	_, err := service.GetUser(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetUser_Found(t *testing.T) {
	ctx := context.Background()
	existing := testUser()

	mockUsers := new(MockUserRepository)
	service := NewIdentityService(mockUsers)
	mockUsers.On("GetUserByID", ctx, existing.ID).Return(existing, nil)

	user, err := service.GetUser(ctx, existing.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, existing.Email, user.Email)
}
