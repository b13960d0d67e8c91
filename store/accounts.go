package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonpro-agenda/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Accounts covers the identity lookups that cross tenant boundaries:
// registration, login and the tenant listing used by background jobs.
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// Register creates the tenant, its owner and a default reminder template in one transaction.
func (a *Accounts) Register(ctx context.Context, tenant *models.Tenant, owner *models.User) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		q := tx.Model(&models.User{}).Where("email = ?", owner.Email)
		if owner.Phone != "" {
			q = q.Or("phone = ?", owner.Phone)
		}
		if err := q.Count(&count).Error; err != nil {
			return fmt.Errorf("check existing user: %w", err)
		}
		if count > 0 {
			return ErrConflict
		}

		tenant.EnsureID()
		if err := tx.Create(tenant).Error; err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		owner.TenantID = tenant.ID
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("create owner: %w", err)
		}

		template := models.ReminderTemplate{
			Base:     models.Base{TenantID: tenant.ID},
			Name:     "default",
			Message:  models.DefaultReminderMessage,
			IsActive: true,
		}
		if err := tx.Create(&template).Error; err != nil {
			return fmt.Errorf("create reminder template: %w", err)
		}
		return nil
	})
}

// FindUserByLogin accepts an email or a phone number.
func (a *Accounts) FindUserByLogin(ctx context.Context, identifier string) (models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).
		Where("email = ? OR phone = ?", identifier, identifier).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrNotFound
	}
	return user, err
}

func (a *Accounts) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrNotFound
	}
	return user, err
}

func (a *Accounts) TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return a.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

// ListTenants returns every tenant; only background jobs use it.
func (a *Accounts) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := a.db.WithContext(ctx).Order("created_at").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}
