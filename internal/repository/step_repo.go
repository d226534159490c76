package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StepRepository interface {
	CreateBatch(ctx context.Context, steps []model.ApprovalStep) error
	FindByDocumentAndApprover(ctx context.Context, documentID, approverID uuid.UUID) (*model.ApprovalStep, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.ApprovalStep, error)
	Update(ctx context.Context, step *model.ApprovalStep) error
}

type stepRepository struct {
	db *gorm.DB
}

func NewStepRepository(db *gorm.DB) StepRepository {
	return &stepRepository{db: db}
}

func (r *stepRepository) CreateBatch(ctx context.Context, steps []model.ApprovalStep) error {
	if len(steps) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&steps).Error
}

func (r *stepRepository) FindByDocumentAndApprover(ctx context.Context, documentID, approverID uuid.UUID) (*model.ApprovalStep, error) {
	var step model.ApprovalStep
	err := GetDB(ctx, r.db).
		Where("document_id = ? AND approver_id = ?", documentID, approverID).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &step, nil
}

func (r *stepRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.ApprovalStep, error) {
	var steps []model.ApprovalStep
	err := GetDB(ctx, r.db).
		Where("document_id = ?", documentID).
		Order("step_order ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *stepRepository) Update(ctx context.Context, step *model.ApprovalStep) error {
	return GetDB(ctx, r.db).Save(step).Error
}
