package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryRepository appends and reads the immutable audit trail. There are no
// update or delete methods: history rows are never mutated once written.
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.HistoryEntry) error
	ListByDocument(ctx context.Context, documentID uuid.UUID, page, limit int) ([]model.HistoryEntry, int64, error)
	FindRecentDuplicate(ctx context.Context, documentID, approverID uuid.UUID, status, note string, since time.Time) (*model.HistoryEntry, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *model.HistoryEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *historyRepository) ListByDocument(ctx context.Context, documentID uuid.UUID, page, limit int) ([]model.HistoryEntry, int64, error) {
	var entries []model.HistoryEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.HistoryEntry{}).Where("document_id = ?", documentID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("Approver").
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// FindRecentDuplicate returns the newest history entry matching the exact
// decision tuple created at or after since, or nil when there is none.
func (r *historyRepository) FindRecentDuplicate(ctx context.Context, documentID, approverID uuid.UUID, status, note string, since time.Time) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	err := GetDB(ctx, r.db).
		Where("document_id = ? AND approver_id = ? AND status = ? AND note = ? AND created_at >= ?",
			documentID, approverID, status, note, since).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
