package model

import (
	"time"

	"github.com/google/uuid"
)

// Per-step statuses. APPROVED is terminal: once a step reaches it no further
// transition is permitted.
const (
	StepStatusPending     = "PENDING"
	StepStatusOnGoing     = "ON_GOING"
	StepStatusApproved    = "APPROVED"
	StepStatusNotApproved = "NOT_APPROVED"
	StepStatusRejected    = "REJECTED"
)

// ApprovalStep is one position in a document's ordered approval chain, bound
// to exactly one approver. Step orders are contiguous 1..N per document and
// at most one step per document is ON_GOING at any committed point.
type ApprovalStep struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_doc_step_order" json:"document_id"`
	StepOrder  int       `gorm:"not null;uniqueIndex:idx_doc_step_order" json:"step_order"` // 1-based, contiguous
	ActorLabel string    `gorm:"type:varchar(100);not null" json:"actor_label"`             // human-readable role name
	ApproverID uuid.UUID `gorm:"type:uuid;not null;index" json:"approver_id"`
	Approver   *User     `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Status     string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TerminalStepStatus reports whether the status ends a step's participation in
// the normal decision flow.
func TerminalStepStatus(status string) bool {
	switch status {
	case StepStatusApproved, StepStatusNotApproved, StepStatusRejected:
		return true
	}
	return false
}
