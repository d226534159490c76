package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are assigned application-side so the models behave identically on
// Postgres and the sqlite database used in tests.

func (u *User) BeforeCreate(*gorm.DB) error { u.ID = ensureID(u.ID); return nil }

func (s *Section) BeforeCreate(*gorm.DB) error { s.ID = ensureID(s.ID); return nil }

func (d *Department) BeforeCreate(*gorm.DB) error { d.ID = ensureID(d.ID); return nil }

func (t *RefreshToken) BeforeCreate(*gorm.DB) error { t.ID = ensureID(t.ID); return nil }

func (r *Role) BeforeCreate(*gorm.DB) error { r.ID = ensureID(r.ID); return nil }

func (p *Permission) BeforeCreate(*gorm.DB) error { p.ID = ensureID(p.ID); return nil }

func (t *ApprovalTemplate) BeforeCreate(*gorm.DB) error { t.ID = ensureID(t.ID); return nil }

func (d *Document) BeforeCreate(*gorm.DB) error { d.ID = ensureID(d.ID); return nil }

func (m *DocumentMember) BeforeCreate(*gorm.DB) error { m.ID = ensureID(m.ID); return nil }

func (s *ApprovalStep) BeforeCreate(*gorm.DB) error { s.ID = ensureID(s.ID); return nil }

func (h *HistoryEntry) BeforeCreate(*gorm.DB) error { h.ID = ensureID(h.ID); return nil }

func (b *BypassLog) BeforeCreate(*gorm.DB) error { b.ID = ensureID(b.ID); return nil }

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
