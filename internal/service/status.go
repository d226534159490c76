package service

import (
	"math"

	"backend/internal/model"
)

// computeProgress returns the integer percentage of approved steps,
// round(100 * approved / total).
func computeProgress(steps []model.ApprovalStep) int {
	if len(steps) == 0 {
		return 0
	}
	approved := 0
	for _, s := range steps {
		if s.Status == model.StepStatusApproved {
			approved++
		}
	}
	return int(math.Round(100 * float64(approved) / float64(len(steps))))
}

// aggregateStatus evaluates the document status across all steps, highest
// precedence first: any rejected step rejects the document; any not-approved
// step marks it not approved; all approved means done; anything else is still
// on progress.
func aggregateStatus(steps []model.ApprovalStep) string {
	allApproved := len(steps) > 0
	anyNotApproved := false
	for _, s := range steps {
		switch s.Status {
		case model.StepStatusRejected:
			return model.DocStatusRejected
		case model.StepStatusNotApproved:
			anyNotApproved = true
			allApproved = false
		case model.StepStatusApproved:
		default:
			allApproved = false
		}
	}
	if anyNotApproved {
		return model.DocStatusNotApproved
	}
	if allApproved {
		return model.DocStatusDone
	}
	return model.DocStatusOnProgress
}
