package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminBypassDTO selects the bypass strategy via the target status:
// APPROVED = partial (clear the ON_GOING step and keep the chain moving),
// DONE = full (force-complete everything still open).
type AdminBypassDTO struct {
	TargetStatus string `json:"target_status" binding:"required,oneof=APPROVED DONE"`
	Reason       string `json:"reason" binding:"required"`
}

// BypassService is the administrative override. It operates on the document
// as a whole, re-uses the same status/progress rules as normal decisions and
// runs under the same serializable-transaction-with-retry discipline.
type BypassService interface {
	AdminBypass(ctx context.Context, documentID, adminID uuid.UUID, targetStatus, reason string) (*DocumentResponse, error)
}

type bypassService struct {
	txm      repository.TransactionManager
	docs     repository.DocumentRepository
	steps    repository.StepRepository
	history  repository.HistoryRepository
	bypasses repository.BypassLogRepository
	users    repository.UserRepository
	notifier Notifier
	policy   repository.RetryPolicy
	logger   zerolog.Logger
}

func NewBypassService(
	txm repository.TransactionManager,
	docs repository.DocumentRepository,
	steps repository.StepRepository,
	history repository.HistoryRepository,
	bypasses repository.BypassLogRepository,
	users repository.UserRepository,
	notifier Notifier,
	logger zerolog.Logger,
) BypassService {
	return &bypassService{
		txm:      txm,
		docs:     docs,
		steps:    steps,
		history:  history,
		bypasses: bypasses,
		users:    users,
		notifier: notifier,
		policy:   repository.DefaultRetryPolicy(),
		logger:   logger,
	}
}

func (s *bypassService) AdminBypass(ctx context.Context, documentID, adminID uuid.UUID, targetStatus, reason string) (*DocumentResponse, error) {
	var strategy string
	switch targetStatus {
	case model.DocStatusApproved:
		strategy = model.BypassStrategyPartial
	case model.DocStatusDone:
		strategy = model.BypassStrategyFull
	default:
		return nil, apperror.New(apperror.KindValidation, "invalid bypass target status %q", targetStatus)
	}

	admin, err := s.users.GetByID(ctx, adminID.String())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "admin %s not found", adminID)
	}
	if admin.Role != "admin" {
		return nil, apperror.New(apperror.KindBusinessRule, "user %s is not permitted to bypass approvals", admin.EmployeeCode)
	}

	var bypassLog *model.BypassLog
	err = s.txm.RunSerializable(ctx, s.policy, func(txCtx context.Context) error {
		log, txErr := s.applyBypass(txCtx, documentID, adminID, strategy, reason)
		if txErr != nil {
			return txErr
		}
		bypassLog = log
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err := s.docs.FindByIDWithSteps(ctx, documentID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "document %s not found", documentID)
	}

	if s.notifier != nil {
		go s.notifier.BypassApplied(doc, bypassLog)
	}

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// applyBypass runs inside one transaction attempt and re-validates step
// eligibility every time, exactly like a normal decision.
func (s *bypassService) applyBypass(txCtx context.Context, documentID, adminID uuid.UUID, strategy, reason string) (*model.BypassLog, error) {
	doc, err := s.docs.FindByID(txCtx, documentID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "document %s not found", documentID)
	}

	steps, err := s.steps.ListByDocument(txCtx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain: %w", err)
	}

	beforeStatus, beforeProgress := doc.Status, doc.Progress

	var affected []*model.ApprovalStep
	for i := range steps {
		step := &steps[i]
		switch strategy {
		case model.BypassStrategyPartial:
			if step.Status == model.StepStatusOnGoing {
				affected = append(affected, step)
			}
		case model.BypassStrategyFull:
			if step.Status == model.StepStatusOnGoing || step.Status == model.StepStatusPending {
				affected = append(affected, step)
			}
		}
	}
	if len(affected) == 0 {
		return nil, apperror.New(apperror.KindBusinessRule, "no steps eligible for %s bypass", strategy)
	}

	for _, step := range affected {
		step.Status = model.StepStatusApproved
	}

	if strategy == model.BypassStrategyPartial {
		// Keep the chain moving: promote the earliest remaining PENDING step.
		for i := range steps {
			if steps[i].Status == model.StepStatusPending {
				steps[i].Status = model.StepStatusOnGoing
				affected = append(affected, &steps[i])
				break
			}
		}
	}

	doc.Progress = computeProgress(steps)
	doc.Status = aggregateStatus(steps)
	if strategy == model.BypassStrategyFull {
		doc.Progress = 100
		doc.Status = model.DocStatusDone
	} else if doc.Status == model.DocStatusDone {
		// Partial bypass that happened to clear the whole chain: the document
		// is approved rather than done; only a full bypass or a normal final
		// decision closes it.
		doc.Status = model.DocStatusApproved
	}

	for _, step := range affected {
		if err := s.steps.Update(txCtx, step); err != nil {
			return nil, fmt.Errorf("failed to update step %d: %w", step.StepOrder, err)
		}
	}
	if err := s.docs.Update(txCtx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	stepIDs := make([]string, 0, len(affected))
	for _, step := range affected {
		stepIDs = append(stepIDs, step.ID.String())
	}
	encodedIDs, _ := json.Marshal(stepIDs)

	log := &model.BypassLog{
		DocumentID:        documentID,
		AdminID:           adminID,
		Strategy:          strategy,
		BeforeStatus:      beforeStatus,
		BeforeProgress:    beforeProgress,
		AfterStatus:       doc.Status,
		AfterProgress:     doc.Progress,
		Reason:            reason,
		AffectedStepCount: len(affected),
		AffectedStepIDs:   string(encodedIDs),
	}
	if err := s.bypasses.Create(txCtx, log); err != nil {
		return nil, fmt.Errorf("failed to write bypass log: %w", err)
	}

	entry := &model.HistoryEntry{
		DocumentID:  documentID,
		ApproverID:  adminID,
		Status:      doc.Status,
		Note:        reason,
		Description: fmt.Sprintf("administrative %s bypass affecting %d steps", strategy, len(affected)),
	}
	if err := s.history.Create(txCtx, entry); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	s.logger.Info().
		Str("document_id", documentID.String()).
		Str("strategy", strategy).
		Int("affected", len(affected)).
		Str("before", beforeStatus).
		Str("after", doc.Status).
		Msg("admin bypass applied")

	return log, nil
}
