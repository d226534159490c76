package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document kinds routed through the approval chain
const (
	DocTypeAuthorization = "AUTHORIZATION"
	DocTypeHandover      = "HANDOVER"
)

// Aggregate document statuses
const (
	DocStatusSubmitted   = "SUBMITTED"
	DocStatusOnProgress  = "ON_PROGRESS"
	DocStatusApproved    = "APPROVED"
	DocStatusNotApproved = "NOT_APPROVED"
	DocStatusRejected    = "REJECTED"
	DocStatusDone        = "DONE"
)

// Document is the subject routed through an ordered approval chain.
// It is owned by the submitter at creation; afterwards only the decision
// processor and the bypass engine mutate status/progress.
type Document struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocType      string          `gorm:"type:varchar(20);not null;index" json:"doc_type"` // AUTHORIZATION, HANDOVER
	DocNumber    string          `gorm:"type:varchar(60);uniqueIndex;not null" json:"doc_number"`
	LineCode     string          `gorm:"type:varchar(20);not null;index" json:"line_code"` // second segment of DocNumber
	Title        string          `gorm:"type:varchar(255);not null" json:"title"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,4);default:0" json:"amount"` // authorized value, zero for handovers
	SubmitterID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"submitter_id"`
	Submitter    *User           `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`
	SectionID    *uuid.UUID      `gorm:"type:uuid" json:"section_id"`    // used for dynamic approver resolution
	DepartmentID *uuid.UUID      `gorm:"type:uuid" json:"department_id"` // used for dynamic approver resolution
	Status       string          `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	Progress     int             `gorm:"not null;default:0" json:"progress"` // percent of approved steps, 0-100
	Steps        []ApprovalStep  `gorm:"foreignKey:DocumentID" json:"steps,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DocumentMember records a user attached to a document (submitter plus every
// resolved approver); it is the notification audience for document events.
type DocumentMember struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	MemberRole string    `gorm:"type:varchar(20);not null" json:"member_role"` // SUBMITTER, APPROVER
	CreatedAt  time.Time `json:"created_at"`
}
