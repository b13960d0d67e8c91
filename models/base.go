package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the identity and tenant scope shared by every tenant-owned record.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;index;not null" json:"tenantId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b Base) GetID() uuid.UUID       { return b.ID }
func (b Base) GetTenantID() uuid.UUID { return b.TenantID }

// EnsureID assigns a fresh id to records that do not have one yet.
func (b *Base) EnsureID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}

func (b *Base) BeforeCreate(tx *gorm.DB) (err error) {
	b.EnsureID()
	return
}
