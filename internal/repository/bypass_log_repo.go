package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BypassLogRepository appends administrative override records. Append-only.
type BypassLogRepository interface {
	Create(ctx context.Context, log *model.BypassLog) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.BypassLog, error)
}

type bypassLogRepository struct {
	db *gorm.DB
}

func NewBypassLogRepository(db *gorm.DB) BypassLogRepository {
	return &bypassLogRepository{db: db}
}

func (r *bypassLogRepository) Create(ctx context.Context, log *model.BypassLog) error {
	return GetDB(ctx, r.db).Create(log).Error
}

func (r *bypassLogRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.BypassLog, error) {
	var logs []model.BypassLog
	err := GetDB(ctx, r.db).
		Preload("Admin").
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
