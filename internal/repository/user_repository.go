package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-approvals/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
)

// UserRepositoryInterface defines database operations for users and signatures
type UserRepositoryInterface interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	GetSignatureByUserID(ctx context.Context, userID uuid.UUID) (*models.Signature, error)
	UpsertSignature(ctx context.Context, sig *models.Signature) error
}

// UserRepository handles database operations for users and signatures
type UserRepository struct {
	db *gorm.DB
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, matching case-insensitively.
// Emails are stored lower-case; the parameter is folded before the lookup.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

// SaveUser persists changes to an existing user
func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ListUsers retrieves users ordered by creation time
func (r *UserRepository) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	return users, total, err
}

// GetSignatureByUserID retrieves a user's signature row
func (r *UserRepository) GetSignatureByUserID(ctx context.Context, userID uuid.UUID) (*models.Signature, error) {
	var sig models.Signature
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sig).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sig, nil
}

// UpsertSignature inserts the signature row for a user, or overwrites the
// existing row's path and timestamp. A user never has more than one row.
func (r *UserRepository) UpsertSignature(ctx context.Context, sig *models.Signature) error {
	if sig.UploadedAt.IsZero() {
		sig.UploadedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"image_path", "uploaded_at"}),
	}).Create(sig).Error
}
