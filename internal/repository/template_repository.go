package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-approvals/internal/models"
)

// TemplateRepositoryInterface defines database operations for the form catalog
type TemplateRepositoryInterface interface {
	GetTemplateByCode(ctx context.Context, formCode string) (*models.FormTemplate, error)
	ListTemplates(ctx context.Context) ([]models.FormTemplate, error)
	SeedTemplate(ctx context.Context, template *models.FormTemplate) error
	GetRoutes(ctx context.Context, templateID uuid.UUID) ([]models.ApprovalRoute, error)
	ReplaceRoutes(ctx context.Context, templateID uuid.UUID, routes []models.ApprovalRoute) error
}

// TemplateRepository handles database operations for form templates and
// their approval routes
type TemplateRepository struct {
	db *gorm.DB
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetTemplateByCode retrieves a template by its unique form code, with its
// approval routes in sequence order
func (r *TemplateRepository) GetTemplateByCode(ctx context.Context, formCode string) (*models.FormTemplate, error) {
	var template models.FormTemplate
	err := r.db.WithContext(ctx).
		Preload("Routes", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_routes.sequence ASC")
		}).
		Where("form_code = ?", formCode).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// ListTemplates retrieves the full form catalog
func (r *TemplateRepository) ListTemplates(ctx context.Context) ([]models.FormTemplate, error) {
	var templates []models.FormTemplate
	err := r.db.WithContext(ctx).Order("name ASC").Find(&templates).Error
	return templates, err
}

// SeedTemplate creates a catalog entry, or refreshes its name, document
// template path and field schema when the form code already exists
func (r *TemplateRepository) SeedTemplate(ctx context.Context, template *models.FormTemplate) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "form_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "latex_template_path", "fields", "updated_at"}),
	}).Create(template).Error
}

// GetRoutes retrieves a template's approval routes in sequence order
func (r *TemplateRepository) GetRoutes(ctx context.Context, templateID uuid.UUID) ([]models.ApprovalRoute, error) {
	var routes []models.ApprovalRoute
	err := r.db.WithContext(ctx).
		Preload("Approver").
		Where("form_template_id = ?", templateID).
		Order("sequence ASC").
		Find(&routes).Error
	return routes, err
}

// ReplaceRoutes swaps a template's approver list for a new one atomically
func (r *TemplateRepository) ReplaceRoutes(ctx context.Context, templateID uuid.UUID, routes []models.ApprovalRoute) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_template_id = ?", templateID).
			Delete(&models.ApprovalRoute{}).Error; err != nil {
			return err
		}
		if len(routes) == 0 {
			return nil
		}
		return tx.Create(&routes).Error
	})
}
