package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgRepository resolves organizational units and their heads for approver
// resolution. A unit without a configured head yields (nil, nil); that is a
// configuration gap, not an error.
type OrgRepository interface {
	SectionHead(ctx context.Context, sectionID uuid.UUID) (*model.User, error)
	DepartmentHead(ctx context.Context, departmentID uuid.UUID) (*model.User, error)
	CreateSection(ctx context.Context, section *model.Section) error
	CreateDepartment(ctx context.Context, department *model.Department) error
}

type orgRepository struct {
	db *gorm.DB
}

func NewOrgRepository(db *gorm.DB) OrgRepository {
	return &orgRepository{db: db}
}

func (r *orgRepository) SectionHead(ctx context.Context, sectionID uuid.UUID) (*model.User, error) {
	var section model.Section
	err := GetDB(ctx, r.db).Preload("Head").First(&section, "id = ?", sectionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return section.Head, nil
}

func (r *orgRepository) DepartmentHead(ctx context.Context, departmentID uuid.UUID) (*model.User, error) {
	var department model.Department
	err := GetDB(ctx, r.db).Preload("Head").First(&department, "id = ?", departmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return department.Head, nil
}

func (r *orgRepository) CreateSection(ctx context.Context, section *model.Section) error {
	return GetDB(ctx, r.db).Create(section).Error
}

func (r *orgRepository) CreateDepartment(ctx context.Context, department *model.Department) error {
	return GetDB(ctx, r.db).Create(department).Error
}
