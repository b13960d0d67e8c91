// Package store persists tenant-scoped records. Every call carries the caller's
// tenant; rows owned by another tenant are rejected with ErrForbidden. Rows
// without a tenant (public categories) can be read by everyone and written
// only from the system scope (uuid.Nil).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("record belongs to another tenant")
	ErrConflict  = errors.New("record already exists")
)

// SystemScope is the tenant used for seeding and maintaining shared rows.
var SystemScope = uuid.Nil

type Record interface {
	GetID() uuid.UUID
	GetTenantID() uuid.UUID
}

type idAssigner interface {
	EnsureID()
}

// Repository is the record store for one entity type.
type Repository[T Record] interface {
	Find(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]T, error)
	Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (T, error)
	Insert(ctx context.Context, tenantID uuid.UUID, rec *T) error
	Update(ctx context.Context, tenantID uuid.UUID, rec *T) error
	Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
}

// Range bounds a time column inclusively.
type Range struct {
	Column string
	From   time.Time
	To     time.Time
}

// Filter narrows Find by column equality and an optional time range.
// A nil value matches NULL.
type Filter struct {
	Equals map[string]any
	Range  *Range
}

// Where starts a filter with one equality condition.
func Where(column string, value any) Filter {
	return Filter{}.And(column, value)
}

func (f Filter) And(column string, value any) Filter {
	eq := make(map[string]any, len(f.Equals)+1)
	for k, v := range f.Equals {
		eq[k] = v
	}
	eq[column] = value
	f.Equals = eq
	return f
}

func (f Filter) Between(column string, from, to time.Time) Filter {
	f.Range = &Range{Column: column, From: from, To: to}
	return f
}

// readable reports whether tenantID may read a row owned by owner.
func readable(owner, tenantID uuid.UUID) bool {
	return owner == tenantID || owner == uuid.Nil
}

func ensureID(rec any) {
	if a, ok := rec.(idAssigner); ok {
		a.EnsureID()
	}
}
