package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense:
		return true
	}
	return false
}

func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("type", fmt.Sprintf("unknown transaction type %q", s))
	}
	return t, nil
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Category labels transactions. Public categories have no tenant and are
// read-only for everyone; private ones belong to exactly one tenant.
type Category struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID   *uuid.UUID      `gorm:"type:uuid;index" json:"tenantId,omitempty"`
	Name       string          `gorm:"not null" json:"name"`
	Type       TransactionType `gorm:"type:varchar(10);not null;index" json:"type"`
	Visibility Visibility      `gorm:"type:varchar(10);not null" json:"visibility"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (c Category) GetID() uuid.UUID { return c.ID }

func (c Category) GetTenantID() uuid.UUID {
	if c.TenantID == nil {
		return uuid.Nil
	}
	return *c.TenantID
}

func (c *Category) EnsureID() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	c.EnsureID()
	return
}

// OwnedBy reports whether tenantID may mutate the category.
func (c Category) OwnedBy(tenantID uuid.UUID) bool {
	return c.Visibility == VisibilityPrivate && c.TenantID != nil && *c.TenantID == tenantID
}

// VisibleTo reports whether tenantID may read the category.
func (c Category) VisibleTo(tenantID uuid.UUID) bool {
	switch c.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityPrivate:
		return c.OwnedBy(tenantID)
	}
	return false
}

// ServicesCategory receives the income recorded when an appointment is completed.
const ServicesCategory = "Serviços"

// DefaultCategories are seeded as public categories on first start.
var DefaultCategories = map[TransactionType][]string{
	TransactionIncome:  {ServicesCategory, "Produtos", "Outros"},
	TransactionExpense: {"Produtos", "Fixas", "Marketing", "Equipamentos", "Outros"},
}
