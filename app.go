package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonpro-agenda/config"
	"salonpro-agenda/controllers"
	"salonpro-agenda/events"
	"salonpro-agenda/models"
	"salonpro-agenda/routes"
	"salonpro-agenda/services"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the wired services of one process.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	now      func() time.Time
	accounts *store.Accounts
	tenants  store.Repository[models.Tenant]

	categories *services.CategoryRegistry
	ledger     *services.LedgerService
	catalog    *services.CatalogService
	scheduler  *services.AppointmentService
	reminders  *services.ReminderService
	reconciler *services.Reconciler

	amqp *events.AMQPClient
}

var errTwilioDisabled = errors.New("twilio is not configured")

type disabledNotifier struct{}

func (disabledNotifier) Send(context.Context, models.ReminderChannel, string, string) (string, error) {
	return "", errTwilioDisabled
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	db, err := config.ConnectDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()
	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		now:      func() time.Time { return time.Now().In(loc) },
		accounts: store.NewAccounts(db),
		tenants:  store.NewGormRepository[models.Tenant](db),
	}

	transactions := store.NewGormRepository[models.Transaction](db)
	appointments := store.NewGormRepository[models.Appointment](db)
	clients := store.NewGormRepository[models.Client](db)
	offerings := store.NewGormRepository[models.Service](db)

	a.categories = services.NewCategoryRegistry(store.NewGormRepository[models.Category](db), transactions, log.Named("categories"))
	a.ledger = services.NewLedgerService(transactions, a.categories, a.now, log.Named("ledger"))
	a.catalog = services.NewCatalogService(clients, offerings, appointments, log.Named("catalog"))

	// the ledger always listens in-process; AMQP replaces the publisher when configured
	var publisher events.Publisher = events.NewDispatcher(a.ledger)
	if cfg.AMQP.URL != "" {
		client, err := events.NewAMQPClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, log.Named("amqp"))
		if err != nil {
			return nil, err
		}
		a.amqp = client
		publisher = client
	}
	a.scheduler = services.NewAppointmentService(appointments, clients, offerings, publisher, a.now, log.Named("scheduler"))

	var notifier services.Notifier = disabledNotifier{}
	if cfg.Twilio.Enabled() {
		notifier = services.NewTwilioNotifier(services.TwilioConfig{
			AccountSID:     cfg.Twilio.AccountSID,
			AuthToken:      cfg.Twilio.AuthToken,
			FromNumber:     cfg.Twilio.PhoneNumber,
			WhatsAppNumber: cfg.Twilio.WhatsAppNumber,
		})
	}
	a.reminders = services.NewReminderService(a.accounts, appointments, clients,
		store.NewGormRepository[models.ReminderTemplate](db),
		store.NewGormRepository[models.ReminderLog](db),
		notifier, a.now, log.Named("reminders"))
	a.reconciler = services.NewReconciler(a.accounts, a.scheduler, a.ledger, cfg.Jobs.ReconcileDays, a.now, log.Named("reconcile"))
	return a, nil
}

func (a *app) router(tokens *utils.TokenManager) *gin.Engine {
	return routes.SetupRouter(routes.Options{
		ServiceName:    a.cfg.App.Name,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		SlowRequest:    a.cfg.Server.SlowRequest,
		Tokens:         tokens,
		Log:            a.log,
		Health:         a.ping,
	}, routes.Controllers{
		Auth:         controllers.NewAuthController(a.accounts, tokens, a.cfg.Server.SecureCookies, a.log.Named("auth")),
		Profile:      controllers.NewProfileController(a.tenants, a.log.Named("profile")),
		Clients:      controllers.NewClientController(a.catalog),
		Services:     controllers.NewServiceController(a.catalog),
		Categories:   controllers.NewCategoryController(a.categories),
		Appointments: controllers.NewAppointmentController(a.scheduler, a.now),
		Transactions: controllers.NewTransactionController(a.ledger, a.now),
		Reports:      controllers.NewReportController(a.ledger, a.scheduler, a.now),
		Dashboard:    controllers.NewDashboardController(a.catalog, a.scheduler, a.ledger, a.now),
		Reminders:    controllers.NewReminderController(a.reminders, a.tenants, a.now),
	})
}

func (a *app) jobs() (*services.JobRunner, error) {
	sched := services.JobSchedule{
		Reconcile: a.cfg.Jobs.ReconcileCron,
		Location:  a.cfg.Location(),
		Timeout:   a.cfg.Jobs.Timeout,
	}
	if a.cfg.Twilio.Enabled() {
		sched.Reminders = a.cfg.Jobs.ReminderCron
	} else {
		a.log.Warn("twilio not configured, reminder job disabled")
	}
	return services.NewJobRunner(sched, a.reminders, a.reconciler, a.log.Named("jobs"))
}

func (a *app) ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *app) Close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.log.Warn("failed to close amqp connection", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func (a *app) seedCategories(ctx context.Context) error {
	n, err := a.categories.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	a.log.Info("default categories seeded", zap.Int("created", n))
	return nil
}
