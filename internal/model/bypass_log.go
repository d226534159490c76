package model

import (
	"time"

	"github.com/google/uuid"
)

// Bypass strategies
const (
	BypassStrategyPartial = "PARTIAL" // approve the ON_GOING step(s), promote the next PENDING one
	BypassStrategyFull    = "FULL"    // approve everything still open, force DONE
)

// BypassLog records one administrative override of a document's chain,
// including the before/after aggregate state. Append-only.
type BypassLog struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID        uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	AdminID           uuid.UUID `gorm:"type:uuid;not null;index" json:"admin_id"`
	Admin             *User     `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Strategy          string    `gorm:"type:varchar(20);not null" json:"strategy"` // PARTIAL, FULL
	BeforeStatus      string    `gorm:"type:varchar(20);not null" json:"before_status"`
	BeforeProgress    int       `gorm:"not null" json:"before_progress"`
	AfterStatus       string    `gorm:"type:varchar(20);not null" json:"after_status"`
	AfterProgress     int       `gorm:"not null" json:"after_progress"`
	Reason            string    `gorm:"type:text" json:"reason"`
	AffectedStepCount int       `gorm:"not null" json:"affected_step_count"`
	AffectedStepIDs   string    `gorm:"type:jsonb" json:"affected_step_ids"` // JSON array of step ids
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}
