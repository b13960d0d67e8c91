package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"salonpro-agenda/events"
	"salonpro-agenda/models"
	"salonpro-agenda/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUnavailable = errors.New("store unavailable")

// recordingPublisher forwards events to the dispatcher unless err is set.
type recordingPublisher struct {
	mu     sync.Mutex
	next   events.Publisher
	err    error
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return p.next.Publish(ctx, e)
}

func (p *recordingPublisher) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fakeTenants struct {
	tenants []models.Tenant
	err     error
}

func (f *fakeTenants) ListTenants(context.Context) ([]models.Tenant, error) {
	return f.tenants, f.err
}

type fixture struct {
	ctx    context.Context
	now    time.Time
	tenant uuid.UUID
	other  uuid.UUID

	appointments *store.MemoryRepository[models.Appointment]
	clients      *store.MemoryRepository[models.Client]
	services     *store.MemoryRepository[models.Service]
	categories   *store.MemoryRepository[models.Category]
	transactions *store.MemoryRepository[models.Transaction]
	templates    *store.MemoryRepository[models.ReminderTemplate]
	logs         *store.MemoryRepository[models.ReminderLog]

	publisher *recordingPublisher
	tenants   *fakeTenants

	registry  *CategoryRegistry
	ledger    *LedgerService
	scheduler *AppointmentService
	catalog   *CatalogService
}

// newFixture wires every service on memory stores with the clock fixed at
// 2024-01-20 15:30 and the default categories seeded.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:          context.Background(),
		now:          at(2024, 1, 20, 15, 30),
		tenant:       uuid.New(),
		other:        uuid.New(),
		appointments: store.NewMemoryRepository[models.Appointment](),
		clients:      store.NewMemoryRepository[models.Client](),
		services:     store.NewMemoryRepository[models.Service](),
		categories:   store.NewMemoryRepository[models.Category](),
		transactions: store.NewMemoryRepository[models.Transaction](),
		templates:    store.NewMemoryRepository[models.ReminderTemplate](),
		logs:         store.NewMemoryRepository[models.ReminderLog](),
	}
	clock := func() time.Time { return f.now }
	log := zap.NewNop()

	f.registry = NewCategoryRegistry(f.categories, f.transactions, log)
	f.ledger = NewLedgerService(f.transactions, f.registry, clock, log)
	f.publisher = &recordingPublisher{next: events.NewDispatcher(f.ledger)}
	f.scheduler = NewAppointmentService(f.appointments, f.clients, f.services, f.publisher, clock, log)
	f.catalog = NewCatalogService(f.clients, f.services, f.appointments, log)
	f.tenants = &fakeTenants{tenants: []models.Tenant{
		{ID: f.tenant, Name: "Studio Bela", RemindersEnabled: true, SMSNotifications: true},
		{ID: f.other, Name: "Salão Outro", RemindersEnabled: false},
	}}

	_, err := f.registry.SeedDefaults(f.ctx)
	require.NoError(t, err)
	return f
}

func (f *fixture) client(t *testing.T, name string) *models.Client {
	t.Helper()
	c, err := f.catalog.RegisterClient(f.ctx, f.tenant, ClientInput{Name: name, Phone: "+5511999990000"})
	require.NoError(t, err)
	return c
}

func (f *fixture) service(t *testing.T, name string, price string, minutes int) *models.Service {
	t.Helper()
	s, err := f.catalog.CreateService(f.ctx, f.tenant, ServiceInput{
		Name:            name,
		Price:           decimal.RequireFromString(price),
		DurationMinutes: minutes,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) book(t *testing.T, client *models.Client, service *models.Service, date, start string) *models.Appointment {
	t.Helper()
	a, err := f.scheduler.CreateAppointment(f.ctx, f.tenant, CreateAppointmentInput{
		ClientID:  client.ID,
		ServiceID: service.ID,
		Date:      date,
		StartTime: start,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) category(t *testing.T, tenant uuid.UUID, name string, typ models.TransactionType) *models.Category {
	t.Helper()
	c, err := f.registry.FindByName(f.ctx, tenant, name, typ)
	require.NoError(t, err)
	return c
}

func (f *fixture) record(t *testing.T, typ models.TransactionType, category, amount, date, description string) *models.Transaction {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	tx, err := f.ledger.Record(f.ctx, f.tenant, RecordInput{
		Type:        typ,
		CategoryID:  f.category(t, f.tenant, category, typ).ID,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Date:        d,
	})
	require.NoError(t, err)
	return tx
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// brt is the zone pgx scans timestamptz columns into on a São Paulo server.
var brt = time.FixedZone("BRT", -3*60*60)

// zonedTransactions returns stored dates the way pgx does on a non-UTC server.
type zonedTransactions struct {
	store.Repository[models.Transaction]
}

func (z zonedTransactions) Find(ctx context.Context, tenantID uuid.UUID, filter store.Filter) ([]models.Transaction, error) {
	rows, err := z.Repository.Find(ctx, tenantID, filter)
	for i := range rows {
		rows[i].Date = rows[i].Date.In(brt)
	}
	return rows, err
}
