package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var schemaCache sync.Map

// GormRepository is the SQL-backed Repository.
type GormRepository[T Record] struct {
	db           *gorm.DB
	table        string
	tenantColumn string
}

func NewGormRepository[T Record](db *gorm.DB) *GormRepository[T] {
	r := &GormRepository[T]{db: db, tenantColumn: "tenant_id"}
	if sch, err := schema.Parse(new(T), &schemaCache, db.NamingStrategy); err == nil {
		r.table = sch.Table
		// tenants scope themselves
		if sch.LookUpField("tenant_id") == nil && sch.PrioritizedPrimaryField != nil {
			r.tenantColumn = sch.PrioritizedPrimaryField.DBName
		}
	}
	return r
}

func (r *GormRepository[T]) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(new(T)).
		Where(fmt.Sprintf("(%s = ? OR %s IS NULL)", r.tenantColumn, r.tenantColumn), tenantID)
}

func (r *GormRepository[T]) Find(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]T, error) {
	q := r.scoped(ctx, tenantID)

	columns := make([]string, 0, len(filter.Equals))
	for col := range filter.Equals {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: filter.Equals[col]})
	}
	if rg := filter.Range; rg != nil {
		q = q.Where(clause.Gte{Column: clause.Column{Name: rg.Column}, Value: rg.From}).
			Where(clause.Lte{Column: clause.Column{Name: rg.Column}, Value: rg.To})
	}

	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", r.table, err)
	}
	return rows, nil
}

func (r *GormRepository[T]) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (T, error) {
	var rec T
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s %s: %w", r.table, id, err)
	}
	if !readable(rec.GetTenantID(), tenantID) {
		var zero T
		return zero, ErrForbidden
	}
	return rec, nil
}

func (r *GormRepository[T]) Insert(ctx context.Context, tenantID uuid.UUID, rec *T) error {
	if (*rec).GetTenantID() != tenantID {
		return ErrForbidden
	}
	ensureID(rec)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

// Update saves the whole record after checking the stored row belongs to tenantID.
func (r *GormRepository[T]) Update(ctx context.Context, tenantID uuid.UUID, rec *T) error {
	if (*rec).GetTenantID() != tenantID {
		return ErrForbidden
	}
	if _, err := r.owned(ctx, tenantID, (*rec).GetID()); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("update %s %s: %w", r.table, (*rec).GetID(), err)
	}
	return nil
}

func (r *GormRepository[T]) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	existing, err := r.owned(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&existing).Error; err != nil {
		return fmt.Errorf("delete %s %s: %w", r.table, id, err)
	}
	return nil
}

func (r *GormRepository[T]) owned(ctx context.Context, tenantID, id uuid.UUID) (T, error) {
	existing, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return existing, err
	}
	if existing.GetTenantID() != tenantID {
		var zero T
		return zero, ErrForbidden
	}
	return existing, nil
}
