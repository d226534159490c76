package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	FindByIDWithSteps(ctx context.Context, id uuid.UUID) (*model.Document, error)
	Update(ctx context.Context, doc *model.Document) error
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
	CreateMembers(ctx context.Context, members []model.DocumentMember) error
	ListMembers(ctx context.Context, documentID uuid.UUID) ([]model.DocumentMember, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindByIDWithSteps(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := GetDB(ctx, r.db).
		Preload("Submitter").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Steps.Approver").
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *documentRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("doc_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *documentRepository) CreateMembers(ctx context.Context, members []model.DocumentMember) error {
	if len(members) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&members).Error
}

func (r *documentRepository) ListMembers(ctx context.Context, documentID uuid.UUID) ([]model.DocumentMember, error) {
	var members []model.DocumentMember
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("document_id = ?", documentID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
