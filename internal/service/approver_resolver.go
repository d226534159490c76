package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/rs/zerolog"
)

// ResolvedStep pairs a template entry with the concrete human approver it
// resolved to.
type ResolvedStep struct {
	ActorLabel string
	Approver   model.User
}

// ApproverResolver maps template entries to concrete approvers: the current
// head of the template's section or department, substituting the document's
// own unit when the template leaves it unset. A step whose approver cannot be
// resolved is dropped and logged as a configuration gap, never a fatal error.
type ApproverResolver interface {
	ResolveAll(ctx context.Context, doc *model.Document, templates []model.ApprovalTemplate) ([]ResolvedStep, error)
}

type approverResolver struct {
	org    repository.OrgRepository
	logger zerolog.Logger
}

func NewApproverResolver(org repository.OrgRepository, logger zerolog.Logger) ApproverResolver {
	return &approverResolver{org: org, logger: logger}
}

func (r *approverResolver) ResolveAll(ctx context.Context, doc *model.Document, templates []model.ApprovalTemplate) ([]ResolvedStep, error) {
	resolved := make([]ResolvedStep, 0, len(templates))
	for _, tmpl := range templates {
		head, err := r.resolveHead(ctx, doc, tmpl)
		if err != nil {
			return nil, err
		}
		if head == nil {
			r.logger.Warn().
				Str("document_id", doc.ID.String()).
				Str("actor", tmpl.ActorName).
				Str("model_type", tmpl.ModelType).
				Msg("no approver configured for template step, dropping")
			continue
		}
		resolved = append(resolved, ResolvedStep{ActorLabel: tmpl.ActorName, Approver: *head})
	}
	return resolved, nil
}

func (r *approverResolver) resolveHead(ctx context.Context, doc *model.Document, tmpl model.ApprovalTemplate) (*model.User, error) {
	switch tmpl.ModelType {
	case model.ModelTypeSection:
		sectionID := tmpl.SectionID
		if sectionID == nil {
			sectionID = doc.SectionID
		}
		if sectionID == nil {
			return nil, nil
		}
		return r.org.SectionHead(ctx, *sectionID)
	case model.ModelTypeDepartment:
		departmentID := tmpl.DepartmentID
		if departmentID == nil {
			departmentID = doc.DepartmentID
		}
		if departmentID == nil {
			return nil, nil
		}
		return r.org.DepartmentHead(ctx, *departmentID)
	default:
		r.logger.Warn().Str("model_type", tmpl.ModelType).Msg("unknown template model type")
		return nil, nil
	}
}
