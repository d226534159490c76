package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateDocumentDTO struct {
	DocType   string `json:"doc_type" binding:"required,oneof=AUTHORIZATION HANDOVER"`
	Title     string `json:"title" binding:"required"`
	LineCode  string `json:"line_code" binding:"required"`
	Amount    string `json:"amount"`     // decimal string, authorization docs only
	DocNumber string `json:"doc_number"` // optional: supplied by an external numbering service
}

type StepResponse struct {
	ID         string `json:"id"`
	StepOrder  int    `json:"step_order"`
	ActorLabel string `json:"actor_label"`
	ApproverID string `json:"approver_id"`
	Approver   string `json:"approver_name,omitempty"`
	Status     string `json:"status"`
	UpdatedAt  string `json:"updated_at"`
}

type DocumentResponse struct {
	ID        string         `json:"id"`
	DocType   string         `json:"doc_type"`
	DocNumber string         `json:"doc_number"`
	LineCode  string         `json:"line_code"`
	Title     string         `json:"title"`
	Amount    string         `json:"amount"`
	Submitter string         `json:"submitter_name,omitempty"`
	Status    string         `json:"status"`
	Progress  int            `json:"progress"`
	Steps     []StepResponse `json:"steps"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type HistoryResponse struct {
	ID          string `json:"id"`
	ApproverID  string `json:"approver_id"`
	Approver    string `json:"approver_name,omitempty"`
	Status      string `json:"status"`
	Note        string `json:"note"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

// DocumentService orchestrates subject creation: document number, line code,
// template and approver resolution and the atomic chain build. It also serves
// the read-only views.
type DocumentService interface {
	CreateDocument(ctx context.Context, submitterID uuid.UUID, req CreateDocumentDTO) (*DocumentResponse, error)
	ListHistory(ctx context.Context, documentID uuid.UUID, page, limit int) ([]HistoryResponse, int64, error)
}

type documentService struct {
	txm       repository.TransactionManager
	docs      repository.DocumentRepository
	users     repository.UserRepository
	history   repository.HistoryRepository
	templates TemplateResolver
	approvers ApproverResolver
	chains    ChainBuilder
	numbers   DocNumberGenerator
	notifier  Notifier
	logger    zerolog.Logger
}

func NewDocumentService(
	txm repository.TransactionManager,
	docs repository.DocumentRepository,
	users repository.UserRepository,
	history repository.HistoryRepository,
	templates TemplateResolver,
	approvers ApproverResolver,
	chains ChainBuilder,
	numbers DocNumberGenerator,
	notifier Notifier,
	logger zerolog.Logger,
) DocumentService {
	return &documentService{
		txm:       txm,
		docs:      docs,
		users:     users,
		history:   history,
		templates: templates,
		approvers: approvers,
		chains:    chains,
		numbers:   numbers,
		notifier:  notifier,
		logger:    logger,
	}
}

// --- Implementation ---

func (s *documentService) CreateDocument(ctx context.Context, submitterID uuid.UUID, req CreateDocumentDTO) (*DocumentResponse, error) {
	submitter, err := s.users.GetByID(ctx, submitterID.String())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "submitter %s not found", submitterID)
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, parseErr := decimal.NewFromString(req.Amount)
		if parseErr != nil {
			return nil, apperror.New(apperror.KindValidation, "invalid amount %q", req.Amount)
		}
		amount = parsed
	}

	var docID uuid.UUID
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		docNumber := req.DocNumber
		if docNumber == "" {
			generated, genErr := s.numbers.Next(txCtx, req.DocType, req.LineCode)
			if genErr != nil {
				return genErr
			}
			docNumber = generated
		}

		// The line code is always derived from the structured number, which
		// also validates externally supplied numbers.
		lineCode, parseErr := ParseLineCode(docNumber)
		if parseErr != nil {
			return parseErr
		}

		doc := &model.Document{
			DocType:      req.DocType,
			DocNumber:    docNumber,
			LineCode:     lineCode,
			Title:        req.Title,
			Amount:       amount,
			SubmitterID:  submitter.ID,
			Submitter:    submitter,
			SectionID:    submitter.SectionID,
			DepartmentID: submitter.DepartmentID,
			Status:       model.DocStatusSubmitted,
		}
		if createErr := s.docs.Create(txCtx, doc); createErr != nil {
			return fmt.Errorf("failed to create document: %w", createErr)
		}
		docID = doc.ID

		templates, resolveErr := s.templates.Resolve(txCtx, lineCode)
		if resolveErr != nil {
			return resolveErr
		}

		resolved, resolveErr := s.approvers.ResolveAll(txCtx, doc, templates)
		if resolveErr != nil {
			return resolveErr
		}

		if _, buildErr := s.chains.Build(txCtx, doc, resolved); buildErr != nil {
			return buildErr
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err := s.docs.FindByIDWithSteps(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload document: %w", err)
	}

	if s.notifier != nil {
		members, memberErr := s.docs.ListMembers(ctx, docID)
		if memberErr != nil {
			s.logger.Warn().Err(memberErr).Msg("failed to load members for notification")
			members = nil
		}
		go s.notifier.DocumentCreated(doc, members)
	}

	resp := toDocumentResponse(doc)
	return &resp, nil
}

func (s *documentService) ListHistory(ctx context.Context, documentID uuid.UUID, page, limit int) ([]HistoryResponse, int64, error) {
	if _, err := s.docs.FindByID(ctx, documentID); err != nil {
		return nil, 0, apperror.Wrap(apperror.KindNotFound, err, "document %s not found", documentID)
	}

	entries, total, err := s.history.ListByDocument(ctx, documentID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}

	result := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		h := HistoryResponse{
			ID:          e.ID.String(),
			ApproverID:  e.ApproverID.String(),
			Status:      e.Status,
			Note:        e.Note,
			Description: e.Description,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		}
		if e.Approver != nil {
			h.Approver = e.Approver.DisplayName
		}
		result = append(result, h)
	}
	return result, total, nil
}

// --- Helpers ---

func toDocumentResponse(doc *model.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:        doc.ID.String(),
		DocType:   doc.DocType,
		DocNumber: doc.DocNumber,
		LineCode:  doc.LineCode,
		Title:     doc.Title,
		Amount:    doc.Amount.StringFixed(4),
		Status:    doc.Status,
		Progress:  doc.Progress,
		CreatedAt: doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: doc.UpdatedAt.Format(time.RFC3339),
	}
	if doc.Submitter != nil {
		resp.Submitter = doc.Submitter.DisplayName
	}
	resp.Steps = make([]StepResponse, 0, len(doc.Steps))
	for _, step := range doc.Steps {
		sr := StepResponse{
			ID:         step.ID.String(),
			StepOrder:  step.StepOrder,
			ActorLabel: step.ActorLabel,
			ApproverID: step.ApproverID.String(),
			Status:     step.Status,
			UpdatedAt:  step.UpdatedAt.Format(time.RFC3339),
		}
		if step.Approver != nil {
			sr.Approver = step.Approver.DisplayName
		}
		resp.Steps = append(resp.Steps, sr)
	}
	return resp
}
