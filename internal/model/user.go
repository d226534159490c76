package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an entry in the identity directory: submitters, approvers and
// administrators. Approver display fields are consumed by-reference for audit
// and notification only.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeCode string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"employee_code"`
	Username     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	DisplayName  string         `gorm:"type:varchar(255);not null" json:"display_name"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Gender       string         `gorm:"type:varchar(10)" json:"gender"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"`   // omit password from JSON
	Role         string         `gorm:"type:varchar(50);not null" json:"role"` // admin, approver, staff
	SectionID    *uuid.UUID     `gorm:"type:uuid;index" json:"section_id"`
	DepartmentID *uuid.UUID     `gorm:"type:uuid;index" json:"department_id"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// Section is an organizational unit whose head approves SECTION-model steps.
type Section struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code         string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index" json:"department_id"`
	HeadUserID   *uuid.UUID `gorm:"type:uuid" json:"head_user_id"` // nil = no head configured
	Head         *User      `gorm:"foreignKey:HeadUserID" json:"head,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Department is an organizational unit whose head approves DEPARTMENT-model steps.
type Department struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code       string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	HeadUserID *uuid.UUID `gorm:"type:uuid" json:"head_user_id"` // nil = no head configured
	Head       *User      `gorm:"foreignKey:HeadUserID" json:"head,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
