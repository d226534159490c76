package model

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is the append-only audit trail of a document: one row per
// accepted decision or bypass action. Rows are never updated or deleted.
type HistoryEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	ApproverID  uuid.UUID `gorm:"type:uuid;not null;index" json:"approver_id"`
	Approver    *User     `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Status      string    `gorm:"type:varchar(20);not null" json:"status"`
	Note        string    `gorm:"type:text" json:"note"`        // approver's free text
	Description string    `gorm:"type:text" json:"description"` // engine-generated summary
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
