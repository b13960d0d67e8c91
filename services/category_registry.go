package services

import (
	"context"
	"sort"
	"strings"

	"salonpro-agenda/models"
	"salonpro-agenda/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryRegistry is the single place that decides which categories a tenant
// sees and may change.
type CategoryRegistry struct {
	categories   store.Repository[models.Category]
	transactions store.Repository[models.Transaction]
	log          *zap.Logger
}

func NewCategoryRegistry(
	categories store.Repository[models.Category],
	transactions store.Repository[models.Transaction],
	log *zap.Logger,
) *CategoryRegistry {
	return &CategoryRegistry{categories: categories, transactions: transactions, log: log}
}

// ListVisible returns public and tenant-owned categories of typ, sorted by name.
func (r *CategoryRegistry) ListVisible(ctx context.Context, tenantID uuid.UUID, typ models.TransactionType) ([]models.Category, error) {
	if !typ.Valid() {
		return nil, models.NewValidationError("type", "must be income or expense")
	}
	return r.visible(ctx, tenantID, store.Where("type", typ))
}

// ListAll returns every visible category of both types.
func (r *CategoryRegistry) ListAll(ctx context.Context, tenantID uuid.UUID) ([]models.Category, error) {
	return r.visible(ctx, tenantID, store.Filter{})
}

func (r *CategoryRegistry) visible(ctx context.Context, tenantID uuid.UUID, filter store.Filter) ([]models.Category, error) {
	rows, err := r.categories.Find(ctx, tenantID, filter)
	if err != nil {
		return nil, storeError(err, "category", uuid.Nil)
	}
	out := make([]models.Category, 0, len(rows))
	for _, c := range rows {
		if c.VisibleTo(tenantID) {
			out = append(out, c)
		}
	}
	sortCategories(out)
	return out, nil
}

func sortCategories(cs []models.Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := strings.ToLower(cs[i].Name), strings.ToLower(cs[j].Name)
		if a != b {
			return a < b
		}
		if cs[i].Name != cs[j].Name {
			return cs[i].Name < cs[j].Name
		}
		return cs[i].Type < cs[j].Type
	})
}

func (r *CategoryRegistry) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Category, error) {
	c, err := r.categories.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "category", id)
	}
	if !c.VisibleTo(tenantID) {
		return nil, models.NewPermissionError("category", id.String())
	}
	return &c, nil
}

// FindByName looks up a visible category case-insensitively.
func (r *CategoryRegistry) FindByName(ctx context.Context, tenantID uuid.UUID, name string, typ models.TransactionType) (*models.Category, error) {
	visible, err := r.ListVisible(ctx, tenantID, typ)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for i := range visible {
		if strings.EqualFold(visible[i].Name, name) {
			return &visible[i], nil
		}
	}
	return nil, &models.DomainError{Kind: models.KindNotFound, Entity: "category", Field: "name", Message: name + " not found"}
}

// Create adds a private category for the tenant.
func (r *CategoryRegistry) Create(ctx context.Context, tenantID uuid.UUID, name string, typ models.TransactionType) (*models.Category, error) {
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, models.NewValidationError("type", "must be income or expense")
	}
	if err := r.ensureUnique(ctx, tenantID, name, typ, uuid.Nil); err != nil {
		return nil, err
	}

	owner := tenantID
	c := models.Category{
		TenantID:   &owner,
		Name:       name,
		Type:       typ,
		Visibility: models.VisibilityPrivate,
	}
	if err := r.categories.Insert(ctx, tenantID, &c); err != nil {
		return nil, storeError(err, "category", uuid.Nil)
	}
	r.log.Info("category created",
		zap.Stringer("tenant_id", tenantID),
		zap.Stringer("category_id", c.ID),
		zap.String("type", string(typ)))
	return &c, nil
}

func (r *CategoryRegistry) Rename(ctx context.Context, tenantID, id uuid.UUID, newName string) (*models.Category, error) {
	c, err := r.owned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	name, err := categoryName(newName)
	if err != nil {
		return nil, err
	}
	if err := r.ensureUnique(ctx, tenantID, name, c.Type, c.ID); err != nil {
		return nil, err
	}

	c.Name = name
	if err := r.categories.Update(ctx, tenantID, &c); err != nil {
		return nil, storeError(err, "category", id)
	}
	return &c, nil
}

// Delete removes a private category that no transaction uses.
func (r *CategoryRegistry) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := r.owned(ctx, tenantID, id); err != nil {
		return err
	}
	used, err := r.transactions.Find(ctx, tenantID, store.Where("category_id", id))
	if err != nil {
		return storeError(err, "transaction", uuid.Nil)
	}
	if len(used) > 0 {
		return models.NewInvalidStateError("category", id.String(), "category is used by transactions")
	}
	if err := r.categories.Delete(ctx, tenantID, id); err != nil {
		return storeError(err, "category", id)
	}
	return nil
}

// SeedDefaults inserts the missing public default categories and reports how many it added.
func (r *CategoryRegistry) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, typ := range []models.TransactionType{models.TransactionIncome, models.TransactionExpense} {
		existing, err := r.categories.Find(ctx, store.SystemScope,
			store.Where("type", typ).And("visibility", models.VisibilityPublic))
		if err != nil {
			return created, storeError(err, "category", uuid.Nil)
		}
		for _, name := range models.DefaultCategories[typ] {
			if containsName(existing, name) {
				continue
			}
			c := models.Category{Name: name, Type: typ, Visibility: models.VisibilityPublic}
			if err := r.categories.Insert(ctx, store.SystemScope, &c); err != nil {
				return created, storeError(err, "category", uuid.Nil)
			}
			existing = append(existing, c)
			created++
		}
	}
	if created > 0 {
		r.log.Info("seeded default categories", zap.Int("count", created))
	}
	return created, nil
}

func (r *CategoryRegistry) owned(ctx context.Context, tenantID, id uuid.UUID) (models.Category, error) {
	c, err := r.categories.Get(ctx, tenantID, id)
	if err != nil {
		return c, storeError(err, "category", id)
	}
	if !c.OwnedBy(tenantID) {
		return c, models.NewPermissionError("category", id.String())
	}
	return c, nil
}

func (r *CategoryRegistry) ensureUnique(ctx context.Context, tenantID uuid.UUID, name string, typ models.TransactionType, self uuid.UUID) error {
	visible, err := r.ListVisible(ctx, tenantID, typ)
	if err != nil {
		return err
	}
	for _, c := range visible {
		if c.ID != self && strings.EqualFold(c.Name, name) {
			return models.NewDuplicateNameError("category", name)
		}
	}
	return nil
}

func categoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("name", "is required")
	}
	if len(name) > 60 {
		return "", models.NewValidationError("name", "must be at most 60 characters")
	}
	return name, nil
}

func containsName(cs []models.Category, name string) bool {
	for _, c := range cs {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
