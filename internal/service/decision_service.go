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
)

// duplicateWindow is how long an identical decision tuple is treated as an
// idempotent retry rather than a new decision.
const duplicateWindow = 60 * time.Second

// SubmitDecisionDTO is the payload for one approval decision.
type SubmitDecisionDTO struct {
	Status string `json:"status" binding:"required,oneof=APPROVED NOT_APPROVED REJECTED"`
	Note   string `json:"note"`
}

// DecisionService is the core state machine: it applies one approval or
// rejection decision, advances the chain, recomputes aggregate status and
// progress and appends an audit record — all inside one serializable
// transaction with bounded retry.
type DecisionService interface {
	SubmitDecision(ctx context.Context, documentID, approverID uuid.UUID, status, note string) (*DocumentResponse, error)
	GetChain(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error)
}

type decisionService struct {
	txm      repository.TransactionManager
	docs     repository.DocumentRepository
	steps    repository.StepRepository
	history  repository.HistoryRepository
	notifier Notifier
	policy   repository.RetryPolicy
	logger   zerolog.Logger
}

func NewDecisionService(
	txm repository.TransactionManager,
	docs repository.DocumentRepository,
	steps repository.StepRepository,
	history repository.HistoryRepository,
	notifier Notifier,
	logger zerolog.Logger,
) DecisionService {
	return &decisionService{
		txm:      txm,
		docs:     docs,
		steps:    steps,
		history:  history,
		notifier: notifier,
		policy:   repository.DefaultRetryPolicy(),
		logger:   logger,
	}
}

func (s *decisionService) SubmitDecision(ctx context.Context, documentID, approverID uuid.UUID, status, note string) (*DocumentResponse, error) {
	switch status {
	case model.StepStatusApproved, model.StepStatusNotApproved, model.StepStatusRejected:
	default:
		return nil, apperror.New(apperror.KindValidation, "invalid decision status %q", status)
	}

	// Duplicate suppressor, first pass: an identical tuple inside the window
	// is an idempotent retry — return current state, mutate nothing.
	dup, err := s.history.FindRecentDuplicate(ctx, documentID, approverID, status, note, time.Now().Add(-duplicateWindow))
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if dup != nil {
		s.logger.Info().
			Str("document_id", documentID.String()).
			Str("approver_id", approverID.String()).
			Msg("duplicate decision suppressed")
		return s.GetChain(ctx, documentID)
	}

	var decidedStep *model.ApprovalStep
	err = s.txm.RunSerializable(ctx, s.policy, func(txCtx context.Context) error {
		step, applied, txErr := s.applyDecision(txCtx, documentID, approverID, status, note)
		if txErr != nil {
			return txErr
		}
		if applied {
			decidedStep = step
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err := s.docs.FindByIDWithSteps(ctx, documentID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "document %s not found", documentID)
	}

	if decidedStep != nil && s.notifier != nil {
		go s.notifier.DecisionApplied(doc, decidedStep, note)
	}

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// applyDecision runs entirely inside one transaction attempt. It re-validates
// every precondition because a concurrent writer may have won a previous
// attempt. Returns applied=false when the in-transaction duplicate re-check
// fires.
func (s *decisionService) applyDecision(txCtx context.Context, documentID, approverID uuid.UUID, status, note string) (*model.ApprovalStep, bool, error) {
	step, err := s.steps.FindByDocumentAndApprover(txCtx, documentID, approverID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load approval step: %w", err)
	}
	if step == nil {
		return nil, false, apperror.New(apperror.KindNotFound, "no approval step for approver %s on document %s", approverID, documentID)
	}

	// APPROVED is terminal; re-checked on every retry attempt so a losing
	// writer never overwrites a winning writer's transition.
	if step.Status == model.StepStatusApproved {
		return nil, false, apperror.New(apperror.KindBusinessRule, "step %d is already approved", step.StepOrder)
	}

	// Duplicate suppressor, second pass: closes the race between the outside
	// check and this commit.
	dup, err := s.history.FindRecentDuplicate(txCtx, documentID, approverID, status, note, time.Now().Add(-duplicateWindow))
	if err != nil {
		return nil, false, fmt.Errorf("duplicate re-check failed: %w", err)
	}
	if dup != nil {
		return nil, false, nil
	}

	doc, err := s.docs.FindByID(txCtx, documentID)
	if err != nil {
		return nil, false, apperror.Wrap(apperror.KindNotFound, err, "document %s not found", documentID)
	}

	steps, err := s.steps.ListByDocument(txCtx, documentID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load chain: %w", err)
	}

	// Apply the decision to the in-memory chain, then derive everything else
	// from the post-mutation chain state.
	var next *model.ApprovalStep
	for i := range steps {
		if steps[i].ID == step.ID {
			steps[i].Status = status
			step = &steps[i]
			continue
		}
	}
	if status == model.StepStatusApproved {
		for i := range steps {
			if steps[i].StepOrder == step.StepOrder+1 {
				candidate := &steps[i]
				if !model.TerminalStepStatus(candidate.Status) && candidate.Status != model.StepStatusOnGoing {
					candidate.Status = model.StepStatusOnGoing
					next = candidate
				}
				break
			}
		}
	}

	doc.Progress = computeProgress(steps)
	doc.Status = aggregateStatus(steps)

	if err := s.steps.Update(txCtx, step); err != nil {
		return nil, false, fmt.Errorf("failed to update step: %w", err)
	}
	if next != nil {
		if err := s.steps.Update(txCtx, next); err != nil {
			return nil, false, fmt.Errorf("failed to promote next step: %w", err)
		}
	}
	if err := s.docs.Update(txCtx, doc); err != nil {
		return nil, false, fmt.Errorf("failed to update document: %w", err)
	}

	entry := &model.HistoryEntry{
		DocumentID:  documentID,
		ApproverID:  approverID,
		Status:      status,
		Note:        note,
		Description: fmt.Sprintf("step %d of %d: %s", step.StepOrder, len(steps), status),
	}
	if err := s.history.Create(txCtx, entry); err != nil {
		return nil, false, fmt.Errorf("failed to append history: %w", err)
	}

	return step, true, nil
}

func (s *decisionService) GetChain(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docs.FindByIDWithSteps(ctx, documentID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindNotFound, err, "document %s not found", documentID)
	}
	resp := toDocumentResponse(doc)
	return &resp, nil
}
