package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

type Op string

const (
	OpFind   Op = "find"
	OpGet    Op = "get"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// MemoryRepository keeps records in memory with the same scoping rules as
// GormRepository. Columns in filters are resolved through the gorm schema of T.
// Failures can be injected per operation.
type MemoryRepository[T Record] struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]T
	order    []uuid.UUID
	schema   *schema.Schema
	failures map[Op]error
	calls    map[Op]int
}

func NewMemoryRepository[T Record]() *MemoryRepository[T] {
	sch, err := schema.Parse(new(T), &schemaCache, schema.NamingStrategy{})
	if err != nil {
		panic(fmt.Sprintf("store: parse schema: %v", err))
	}
	return &MemoryRepository[T]{
		rows:     make(map[uuid.UUID]T),
		schema:   sch,
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
	}
}

// FailOn makes every following op fail with err until cleared with a nil err.
func (m *MemoryRepository[T]) FailOn(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls reports how many times op was attempted.
func (m *MemoryRepository[T]) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Len counts every stored row regardless of tenant.
func (m *MemoryRepository[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *MemoryRepository[T]) begin(op Op) error {
	m.calls[op]++
	return m.failures[op]
}

func (m *MemoryRepository[T]) Find(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpFind); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []T
	for _, id := range m.order {
		rec := m.rows[id]
		if !readable(rec.GetTenantID(), tenantID) {
			continue
		}
		ok, err := m.matches(ctx, rec, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryRepository[T]) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if err := m.begin(OpGet); err != nil {
		return zero, err
	}
	return m.get(tenantID, id)
}

func (m *MemoryRepository[T]) get(tenantID, id uuid.UUID) (T, error) {
	var zero T
	rec, ok := m.rows[id]
	if !ok {
		return zero, ErrNotFound
	}
	if !readable(rec.GetTenantID(), tenantID) {
		return zero, ErrForbidden
	}
	return rec, nil
}

func (m *MemoryRepository[T]) Insert(ctx context.Context, tenantID uuid.UUID, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpInsert); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if (*rec).GetTenantID() != tenantID {
		return ErrForbidden
	}
	ensureID(rec)
	id := (*rec).GetID()
	if _, exists := m.rows[id]; exists {
		return ErrConflict
	}
	m.rows[id] = *rec
	m.order = append(m.order, id)
	return nil
}

func (m *MemoryRepository[T]) Update(ctx context.Context, tenantID uuid.UUID, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpUpdate); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if (*rec).GetTenantID() != tenantID {
		return ErrForbidden
	}
	existing, err := m.get(tenantID, (*rec).GetID())
	if err != nil {
		return err
	}
	if existing.GetTenantID() != tenantID {
		return ErrForbidden
	}
	m.rows[(*rec).GetID()] = *rec
	return nil
}

func (m *MemoryRepository[T]) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpDelete); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	existing, err := m.get(tenantID, id)
	if err != nil {
		return err
	}
	if existing.GetTenantID() != tenantID {
		return ErrForbidden
	}
	delete(m.rows, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepository[T]) matches(ctx context.Context, rec T, filter Filter) (bool, error) {
	value := reflect.ValueOf(rec)
	for column, want := range filter.Equals {
		got, err := m.column(ctx, value, column)
		if err != nil {
			return false, err
		}
		if !sameValue(got, want) {
			return false, nil
		}
	}
	if rg := filter.Range; rg != nil {
		got, err := m.column(ctx, value, rg.Column)
		if err != nil {
			return false, err
		}
		v, isNil := deref(got)
		t, ok := v.(time.Time)
		if isNil || !ok {
			return false, nil
		}
		if t.Before(rg.From) || t.After(rg.To) {
			return false, nil
		}
	}
	return true, nil
}

func (m *MemoryRepository[T]) column(ctx context.Context, value reflect.Value, column string) (any, error) {
	field := m.schema.LookUpField(column)
	if field == nil {
		return nil, fmt.Errorf("%s has no column %q", m.schema.Table, column)
	}
	got, _ := field.ValueOf(ctx, value)
	return got, nil
}

func sameValue(got, want any) bool {
	g, gotNil := deref(got)
	w, wantNil := deref(want)
	if gotNil || wantNil {
		return gotNil && wantNil
	}
	if gt, ok := g.(time.Time); ok {
		if wt, ok := w.(time.Time); ok {
			return gt.Equal(wt)
		}
	}
	return fmt.Sprint(g) == fmt.Sprint(w)
}

func deref(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true
		}
		rv = rv.Elem()
	}
	return rv.Interface(), false
}

