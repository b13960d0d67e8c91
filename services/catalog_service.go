// services/catalog_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"salonpro-agenda/models"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClientStatusFilter selects clients by active flag.
type ClientStatusFilter string

const (
	ClientsAll      ClientStatusFilter = "all"
	ClientsActive   ClientStatusFilter = "active"
	ClientsInactive ClientStatusFilter = "inactive"
)

func ParseClientStatusFilter(s string) (ClientStatusFilter, error) {
	switch f := ClientStatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ClientsAll, nil
	case ClientsAll, ClientsActive, ClientsInactive:
		return f, nil
	}
	return "", models.NewInvalidFilterError("status", s)
}

type ClientFilter struct {
	Search string
	Status ClientStatusFilter
}

type ClientInput struct {
	Name  string
	Phone string
	Email string
	Notes string
}

type ClientPatch struct {
	Name  *string
	Phone *string
	Email *string
	Notes *string
}

type ServiceInput struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	DurationMinutes int
}

type ServicePatch struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	DurationMinutes *int
	IsActive        *bool
}

// CatalogService manages the tenant's clients and service offerings.
type CatalogService struct {
	clients      store.Repository[models.Client]
	services     store.Repository[models.Service]
	appointments store.Repository[models.Appointment]
	log          *zap.Logger
}

func NewCatalogService(
	clients store.Repository[models.Client],
	services store.Repository[models.Service],
	appointments store.Repository[models.Appointment],
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{clients: clients, services: services, appointments: appointments, log: log}
}

// RegisterClient validates the phone and stores an active client.
func (s *CatalogService) RegisterClient(ctx context.Context, tenantID uuid.UUID, in ClientInput) (*models.Client, error) {
	client := models.Client{
		Base:     models.Base{TenantID: tenantID},
		Name:     strings.TrimSpace(in.Name),
		Phone:    strings.TrimSpace(in.Phone),
		Email:    strings.TrimSpace(in.Email),
		Notes:    strings.TrimSpace(in.Notes),
		IsActive: true,
	}
	if err := s.validateClient(ctx, tenantID, &client); err != nil {
		return nil, err
	}
	if err := s.clients.Insert(ctx, tenantID, &client); err != nil {
		return nil, storeError(err, "client", uuid.Nil)
	}
	s.log.Info("client registered", zap.Stringer("tenant_id", tenantID), zap.Stringer("client_id", client.ID))
	return &client, nil
}

func (s *CatalogService) GetClient(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	client, err := s.clients.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "client", id)
	}
	return &client, nil
}

// UpdateClient applies the non-nil fields of patch.
func (s *CatalogService) UpdateClient(ctx context.Context, tenantID, id uuid.UUID, patch ClientPatch) (*models.Client, error) {
	client, err := s.clients.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "client", id)
	}
	if patch.Name != nil {
		client.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		client.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Email != nil {
		client.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Notes != nil {
		client.Notes = strings.TrimSpace(*patch.Notes)
	}
	if err := s.validateClient(ctx, tenantID, &client); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, tenantID, &client); err != nil {
		return nil, storeError(err, "client", id)
	}
	return &client, nil
}

func (s *CatalogService) DeactivateClient(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	return s.setClientActive(ctx, tenantID, id, false)
}

func (s *CatalogService) ReactivateClient(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	return s.setClientActive(ctx, tenantID, id, true)
}

func (s *CatalogService) setClientActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (*models.Client, error) {
	client, err := s.clients.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "client", id)
	}
	if client.IsActive == active {
		return &client, nil
	}
	client.IsActive = active
	if err := s.clients.Update(ctx, tenantID, &client); err != nil {
		return nil, storeError(err, "client", id)
	}
	return &client, nil
}

// DeleteClient removes a client with no appointment history. Clients with
// appointments can only be deactivated.
func (s *CatalogService) DeleteClient(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.clients.Get(ctx, tenantID, id); err != nil {
		return storeError(err, "client", id)
	}
	if err := s.ensureUnreferenced(ctx, tenantID, "client", id, store.Where("client_id", id)); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, tenantID, id); err != nil {
		return storeError(err, "client", id)
	}
	return nil
}

// ListClients returns the tenant's clients sorted by name. Search matches
// name, phone and notes case-insensitively.
func (s *CatalogService) ListClients(ctx context.Context, tenantID uuid.UUID, f ClientFilter) ([]models.Client, error) {
	filter := store.Filter{}
	switch f.Status {
	case ClientsActive:
		filter = store.Where("is_active", true)
	case ClientsInactive:
		filter = store.Where("is_active", false)
	case ClientsAll, "":
	default:
		return nil, models.NewInvalidFilterError("status", string(f.Status))
	}
	rows, err := s.clients.Find(ctx, tenantID, filter)
	if err != nil {
		return nil, storeError(err, "client", uuid.Nil)
	}

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Client, 0, len(rows))
	for _, c := range rows {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Phone), needle) ||
			strings.Contains(strings.ToLower(c.Notes), needle) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *CatalogService) validateClient(ctx context.Context, tenantID uuid.UUID, c *models.Client) error {
	if c.Name == "" {
		return models.NewValidationError("name", "is required")
	}
	if c.Phone != "" {
		if !utils.ValidatePhone(c.Phone) {
			return models.NewValidationError("phone", "invalid phone number format")
		}
		c.Phone = utils.NormalizePhone(c.Phone)
	}
	existing, err := s.clients.Find(ctx, tenantID, store.Filter{})
	if err != nil {
		return storeError(err, "client", uuid.Nil)
	}
	for _, other := range existing {
		if other.ID != c.ID && strings.EqualFold(other.Name, c.Name) {
			return models.NewDuplicateNameError("client", c.Name)
		}
	}
	return nil
}

func (s *CatalogService) CreateService(ctx context.Context, tenantID uuid.UUID, in ServiceInput) (*models.Service, error) {
	service := models.Service{
		Base:            models.Base{TenantID: tenantID},
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		Price:           in.Price,
		DurationMinutes: in.DurationMinutes,
		IsActive:        true,
	}
	if err := validateService(service); err != nil {
		return nil, err
	}
	if err := s.services.Insert(ctx, tenantID, &service); err != nil {
		return nil, storeError(err, "service", uuid.Nil)
	}
	s.log.Info("service created", zap.Stringer("tenant_id", tenantID), zap.Stringer("service_id", service.ID))
	return &service, nil
}

func (s *CatalogService) GetService(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	service, err := s.services.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "service", id)
	}
	return &service, nil
}

// UpdateService changes the catalog entry only. Booked appointments keep
// the snapshot taken when they were created.
func (s *CatalogService) UpdateService(ctx context.Context, tenantID, id uuid.UUID, patch ServicePatch) (*models.Service, error) {
	service, err := s.services.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "service", id)
	}
	if patch.Name != nil {
		service.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		service.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		service.Price = *patch.Price
	}
	if patch.DurationMinutes != nil {
		service.DurationMinutes = *patch.DurationMinutes
	}
	if patch.IsActive != nil {
		service.IsActive = *patch.IsActive
	}
	if err := validateService(service); err != nil {
		return nil, err
	}
	if err := s.services.Update(ctx, tenantID, &service); err != nil {
		return nil, storeError(err, "service", id)
	}
	return &service, nil
}

func (s *CatalogService) DeactivateService(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	inactive := false
	return s.UpdateService(ctx, tenantID, id, ServicePatch{IsActive: &inactive})
}

func (s *CatalogService) DeleteService(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.services.Get(ctx, tenantID, id); err != nil {
		return storeError(err, "service", id)
	}
	if err := s.ensureUnreferenced(ctx, tenantID, "service", id, store.Where("service_id", id)); err != nil {
		return err
	}
	if err := s.services.Delete(ctx, tenantID, id); err != nil {
		return storeError(err, "service", id)
	}
	return nil
}

func (s *CatalogService) ListServices(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Service, error) {
	filter := store.Filter{}
	if activeOnly {
		filter = store.Where("is_active", true)
	}
	rows, err := s.services.Find(ctx, tenantID, filter)
	if err != nil {
		return nil, storeError(err, "service", uuid.Nil)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return rows, nil
}

func (s *CatalogService) ensureUnreferenced(ctx context.Context, tenantID uuid.UUID, entity string, id uuid.UUID, filter store.Filter) error {
	refs, err := s.appointments.Find(ctx, tenantID, filter)
	if err != nil {
		return storeError(err, "appointment", uuid.Nil)
	}
	if len(refs) > 0 {
		return models.NewInvalidStateError(entity, id.String(),
			fmt.Sprintf("referenced by %d appointment(s); deactivate it instead", len(refs)))
	}
	return nil
}

func validateService(s models.Service) error {
	switch {
	case s.Name == "":
		return models.NewValidationError("name", "is required")
	case s.Price.IsNegative():
		return models.NewValidationError("price", "must not be negative")
	case !models.FitsMoneyScale(s.Price):
		return models.NewValidationError("price", "must have at most two decimal places")
	case s.DurationMinutes <= 0:
		return models.NewValidationError("durationMinutes", "must be greater than zero")
	case s.DurationMinutes >= models.MinutesPerDay:
		return models.NewValidationError("durationMinutes", "must be shorter than a day")
	}
	return nil
}
