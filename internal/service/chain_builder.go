package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/rs/zerolog"
)

// StartPolicy selects the initial statuses of a freshly built chain.
type StartPolicy int

const (
	// StartSubmitterApproved prepends the submitter as an auto-approved first
	// step; the first reviewer becomes ON_GOING.
	StartSubmitterApproved StartPolicy = iota
	// StartFirstReviewer puts the first reviewer directly ON_GOING with no
	// submitter step.
	StartFirstReviewer
)

// ChainBuilder persists the resolved step list for a new document:
// deduplicated by approver (first occurrence wins), renumbered 1..N, initial
// statuses per the start policy. Steps, members and the initial history entry
// are written in the caller's transaction.
type ChainBuilder interface {
	Build(txCtx context.Context, doc *model.Document, resolved []ResolvedStep) ([]model.ApprovalStep, error)
}

type chainBuilder struct {
	steps   repository.StepRepository
	docs    repository.DocumentRepository
	history repository.HistoryRepository
	policy  StartPolicy
	logger  zerolog.Logger
}

func NewChainBuilder(steps repository.StepRepository, docs repository.DocumentRepository, history repository.HistoryRepository, policy StartPolicy, logger zerolog.Logger) ChainBuilder {
	return &chainBuilder{steps: steps, docs: docs, history: history, policy: policy, logger: logger}
}

func (b *chainBuilder) Build(txCtx context.Context, doc *model.Document, resolved []ResolvedStep) ([]model.ApprovalStep, error) {
	if len(resolved) == 0 {
		return nil, apperror.New(apperror.KindValidation, "no approval steps could be resolved for line %q", doc.LineCode)
	}

	entries := resolved
	if b.policy == StartSubmitterApproved && doc.Submitter != nil {
		entries = append([]ResolvedStep{{ActorLabel: "Submitter", Approver: *doc.Submitter}}, resolved...)
	}

	// A person cannot appear twice in the same chain; keep the first
	// occurrence so dedup is stable with respect to resolution order.
	seen := make(map[string]bool, len(entries))
	deduped := make([]ResolvedStep, 0, len(entries))
	for _, e := range entries {
		key := e.Approver.ID.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, e)
	}

	steps := make([]model.ApprovalStep, 0, len(deduped))
	for i, e := range deduped {
		steps = append(steps, model.ApprovalStep{
			DocumentID: doc.ID,
			StepOrder:  i + 1,
			ActorLabel: e.ActorLabel,
			ApproverID: e.Approver.ID,
			Status:     b.initialStatus(i),
		})
	}

	if err := b.steps.CreateBatch(txCtx, steps); err != nil {
		return nil, fmt.Errorf("failed to create approval steps: %w", err)
	}

	members := make([]model.DocumentMember, 0, len(deduped)+1)
	members = append(members, model.DocumentMember{
		DocumentID: doc.ID,
		UserID:     doc.SubmitterID,
		MemberRole: "SUBMITTER",
	})
	for _, e := range deduped {
		if e.Approver.ID == doc.SubmitterID {
			continue
		}
		members = append(members, model.DocumentMember{
			DocumentID: doc.ID,
			UserID:     e.Approver.ID,
			MemberRole: "APPROVER",
		})
	}
	if err := b.docs.CreateMembers(txCtx, members); err != nil {
		return nil, fmt.Errorf("failed to create document members: %w", err)
	}

	doc.Status = model.DocStatusOnProgress
	doc.Progress = computeProgress(steps)
	if err := b.docs.Update(txCtx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document after chain build: %w", err)
	}

	entry := &model.HistoryEntry{
		DocumentID:  doc.ID,
		ApproverID:  doc.SubmitterID,
		Status:      model.DocStatusSubmitted,
		Description: fmt.Sprintf("document submitted with %d approval steps", len(steps)),
	}
	if err := b.history.Create(txCtx, entry); err != nil {
		return nil, fmt.Errorf("failed to write initial history entry: %w", err)
	}

	return steps, nil
}

func (b *chainBuilder) initialStatus(index int) string {
	switch b.policy {
	case StartSubmitterApproved:
		switch index {
		case 0:
			return model.StepStatusApproved
		case 1:
			return model.StepStatusOnGoing
		}
	case StartFirstReviewer:
		if index == 0 {
			return model.StepStatusOnGoing
		}
	}
	return model.StepStatusPending
}
