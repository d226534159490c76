package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateTemplateDTO struct {
	ActorName       string   `json:"actor_name" binding:"required"`
	ModelType       string   `json:"model_type" binding:"required,oneof=SECTION DEPARTMENT"`
	StepOrder       int      `json:"step_order"`
	SectionID       string   `json:"section_id"`
	DepartmentID    string   `json:"department_id"`
	IsInsertStep    bool     `json:"is_insert_step"`
	InsertAfterStep *int     `json:"insert_after_step"`
	AppliesToLines  []string `json:"applies_to_lines"`
	Priority        int      `json:"priority"`
}

type UpdateTemplateDTO struct {
	ActorName       string   `json:"actor_name" binding:"required"`
	ModelType       string   `json:"model_type" binding:"required,oneof=SECTION DEPARTMENT"`
	StepOrder       int      `json:"step_order"`
	SectionID       string   `json:"section_id"`
	DepartmentID    string   `json:"department_id"`
	InsertAfterStep *int     `json:"insert_after_step"`
	AppliesToLines  []string `json:"applies_to_lines"`
	Priority        int      `json:"priority"`
	IsActive        *bool    `json:"is_active"`
}

// --- Interface ---

// TemplateService is the admin surface for approval-chain configuration.
// Changes only affect chains built after the change; existing documents keep
// the chain they were submitted with.
type TemplateService interface {
	ListTemplates(ctx context.Context, page, limit int) ([]model.ApprovalTemplate, int64, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*model.ApprovalTemplate, error)
	CreateTemplate(ctx context.Context, req CreateTemplateDTO) (*model.ApprovalTemplate, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateDTO) (*model.ApprovalTemplate, error)
	SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) (*model.ApprovalTemplate, error)
}

type templateService struct {
	templates repository.TemplateRepository
}

func NewTemplateService(templates repository.TemplateRepository) TemplateService {
	return &templateService{templates: templates}
}

// --- Implementation ---

func (s *templateService) ListTemplates(ctx context.Context, page, limit int) ([]model.ApprovalTemplate, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.templates.ListAll(ctx, page, limit)
}

func (s *templateService) GetTemplate(ctx context.Context, id uuid.UUID) (*model.ApprovalTemplate, error) {
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "template %s not found", id)
	}
	return template, nil
}

func (s *templateService) CreateTemplate(ctx context.Context, req CreateTemplateDTO) (*model.ApprovalTemplate, error) {
	template := &model.ApprovalTemplate{
		ActorName:       req.ActorName,
		ModelType:       req.ModelType,
		StepOrder:       req.StepOrder,
		IsInsertStep:    req.IsInsertStep,
		InsertAfterStep: req.InsertAfterStep,
		Priority:        req.Priority,
		IsActive:        true,
	}

	if err := applyUnitIDs(template, req.SectionID, req.DepartmentID); err != nil {
		return nil, err
	}

	if req.IsInsertStep {
		if len(req.AppliesToLines) == 0 {
			return nil, apperror.New(apperror.KindValidation, "an insert step needs at least one line code in applies_to_lines")
		}
		encoded, err := json.Marshal(req.AppliesToLines)
		if err != nil {
			return nil, fmt.Errorf("failed to encode line set: %w", err)
		}
		template.AppliesToLines = string(encoded)
	} else if req.StepOrder < 1 {
		return nil, apperror.New(apperror.KindValidation, "a base step needs a step_order of 1 or higher")
	}

	if err := s.templates.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateDTO) (*model.ApprovalTemplate, error) {
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "template %s not found", id)
	}

	template.ActorName = req.ActorName
	template.ModelType = req.ModelType
	template.StepOrder = req.StepOrder
	template.InsertAfterStep = req.InsertAfterStep
	template.Priority = req.Priority
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	template.SectionID = nil
	template.DepartmentID = nil
	if err := applyUnitIDs(template, req.SectionID, req.DepartmentID); err != nil {
		return nil, err
	}

	if template.IsInsertStep {
		if len(req.AppliesToLines) == 0 {
			return nil, apperror.New(apperror.KindValidation, "an insert step needs at least one line code in applies_to_lines")
		}
		encoded, encodeErr := json.Marshal(req.AppliesToLines)
		if encodeErr != nil {
			return nil, fmt.Errorf("failed to encode line set: %w", encodeErr)
		}
		template.AppliesToLines = string(encoded)
	}

	if err := s.templates.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

func (s *templateService) SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) (*model.ApprovalTemplate, error) {
	template, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "template %s not found", id)
	}

	template.IsActive = active
	if err := s.templates.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

func applyUnitIDs(template *model.ApprovalTemplate, sectionID, departmentID string) error {
	if sectionID != "" {
		parsed, err := uuid.Parse(sectionID)
		if err != nil {
			return apperror.Wrap(apperror.KindValidation, err, "invalid section id %q", sectionID)
		}
		template.SectionID = &parsed
	}
	if departmentID != "" {
		parsed, err := uuid.Parse(departmentID)
		if err != nil {
			return apperror.Wrap(apperror.KindValidation, err, "invalid department id %q", departmentID)
		}
		template.DepartmentID = &parsed
	}
	return nil
}
