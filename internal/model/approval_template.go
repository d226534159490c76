package model

import (
	"time"

	"github.com/google/uuid"
)

// Ownership model for a template's approver resolution
const (
	ModelTypeSection    = "SECTION"
	ModelTypeDepartment = "DEPARTMENT"
)

// ApprovalTemplate is configuration defining one step of the chain: its role
// label, how the approver is resolved, and optionally a conditional insertion
// scoped to a set of line codes. Templates are read-only to the engine.
type ApprovalTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LineCode  *string   `gorm:"type:varchar(20);index" json:"line_code"` // nil = applies to every line
	StepOrder int       `gorm:"not null" json:"step_order"`
	ActorName string    `gorm:"type:varchar(100);not null" json:"actor_name"`
	ModelType string    `gorm:"type:varchar(20);not null" json:"model_type"` // SECTION, DEPARTMENT

	// SectionID/DepartmentID select the organizational unit whose head
	// approves this step. When nil the unit is resolved dynamically from the
	// document itself.
	SectionID    *uuid.UUID `gorm:"type:uuid" json:"section_id"`
	DepartmentID *uuid.UUID `gorm:"type:uuid" json:"department_id"`

	// InsertAfterStep anchors an insert after a base step_order; nil inserts
	// before the first step. AppliesToLines is a JSON array or inline list
	// of line codes.
	IsInsertStep    bool   `gorm:"not null;default:false" json:"is_insert_step"`
	InsertAfterStep *int   `json:"insert_after_step"`
	AppliesToLines  string `gorm:"type:text" json:"applies_to_lines"`
	IsActive        bool   `gorm:"not null;default:true;index" json:"is_active"`
	Priority        int    `gorm:"not null;default:0" json:"priority"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
