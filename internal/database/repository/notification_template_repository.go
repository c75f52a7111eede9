package repository

import (
	"context"
	"errors"

	"github.com/modaliv/modaliv-backend/internal/models"

	"gorm.io/gorm"
)

type NotificationTemplateRepository struct {
	db *gorm.DB
}

func NewNotificationTemplateRepository(db *gorm.DB) *NotificationTemplateRepository {
	return &NotificationTemplateRepository{db: db}
}

// GetByCode retrieves a template by its code. Returns nil without error when
// absent.
func (r *NotificationTemplateRepository) GetByCode(ctx context.Context, code string) (*models.NotificationTemplate, error) {
	var template models.NotificationTemplate
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ListActive returns every active template ordered by code.
func (r *NotificationTemplateRepository) ListActive(ctx context.Context) ([]models.NotificationTemplate, error) {
	var templates []models.NotificationTemplate
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("code").Find(&templates).Error
	return templates, err
}

// Upsert creates a template or updates the existing one with the same code.
func (r *NotificationTemplateRepository) Upsert(ctx context.Context, template *models.NotificationTemplate) error {
	existing, err := r.GetByCode(ctx, template.Code)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(template).Error
	}
	template.ID = existing.ID
	template.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(template).Error
}
