package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateRepository holds approval-chain configuration. The engine only ever
// reads the two active lists; the write methods back the admin surface.
type TemplateRepository interface {
	ListActiveBase(ctx context.Context) ([]model.ApprovalTemplate, error)
	ListActiveInserts(ctx context.Context) ([]model.ApprovalTemplate, error)

	ListAll(ctx context.Context, page, limit int) ([]model.ApprovalTemplate, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalTemplate, error)
	Create(ctx context.Context, template *model.ApprovalTemplate) error
	Update(ctx context.Context, template *model.ApprovalTemplate) error
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) ListActiveBase(ctx context.Context) ([]model.ApprovalTemplate, error) {
	var templates []model.ApprovalTemplate
	err := GetDB(ctx, r.db).
		Where("is_active = ? AND is_insert_step = ?", true, false).
		Order("step_order ASC, priority ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) ListActiveInserts(ctx context.Context) ([]model.ApprovalTemplate, error) {
	var templates []model.ApprovalTemplate
	err := GetDB(ctx, r.db).
		Where("is_active = ? AND is_insert_step = ?", true, true).
		Order("priority ASC, step_order ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) ListAll(ctx context.Context, page, limit int) ([]model.ApprovalTemplate, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.ApprovalTemplate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var templates []model.ApprovalTemplate
	err := db.
		Order("is_insert_step ASC, step_order ASC, priority ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&templates).Error
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalTemplate, error) {
	var template model.ApprovalTemplate
	if err := GetDB(ctx, r.db).First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) Create(ctx context.Context, template *model.ApprovalTemplate) error {
	return GetDB(ctx, r.db).Create(template).Error
}

func (r *templateRepository) Update(ctx context.Context, template *model.ApprovalTemplate) error {
	return GetDB(ctx, r.db).Save(template).Error
}
