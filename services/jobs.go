package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReconcileResult counts what one reconciliation pass repaired.
type ReconcileResult struct {
	Republished int `json:"republished"`
	Unlinked    int `json:"unlinked"`
}

// Reconciler repairs the scheduler/ledger link after failed event deliveries:
// completed appointments without a payment get their event published again,
// and transactions pointing at deleted appointments are unlinked.
type Reconciler struct {
	tenants   TenantLister
	scheduler *AppointmentService
	ledger    *LedgerService
	lookBack  int
	now       func() time.Time
	log       *zap.Logger
}

func NewReconciler(tenants TenantLister, scheduler *AppointmentService, ledger *LedgerService, lookBackDays int, now func() time.Time, log *zap.Logger) *Reconciler {
	if lookBackDays <= 0 {
		lookBackDays = 90
	}
	return &Reconciler{
		tenants:   tenants,
		scheduler: scheduler,
		ledger:    ledger,
		lookBack:  lookBackDays,
		now:       now,
		log:       log,
	}
}

func (r *Reconciler) Run(ctx context.Context) (ReconcileResult, error) {
	var total ReconcileResult
	tenants, err := r.tenants.ListTenants(ctx)
	if err != nil {
		return total, fmt.Errorf("list tenants: %w", err)
	}
	var errs []error
	for _, t := range tenants {
		res, err := r.ReconcileTenant(ctx, t.ID)
		total.Republished += res.Republished
		total.Unlinked += res.Unlinked
		if err != nil {
			errs = append(errs, fmt.Errorf("tenant %s: %w", t.ID, err))
		}
	}
	if total.Republished > 0 || total.Unlinked > 0 {
		r.log.Info("ledger reconciled",
			zap.Int("republished", total.Republished),
			zap.Int("unlinked", total.Unlinked))
	}
	return total, errors.Join(errs...)
}

func (r *Reconciler) ReconcileTenant(ctx context.Context, tenantID uuid.UUID) (ReconcileResult, error) {
	var res ReconcileResult
	today := utils.CivilDate(r.now())
	completed, err := r.scheduler.CompletedWithin(ctx, tenantID, today.AddDate(0, 0, -r.lookBack), today)
	if err != nil {
		return res, err
	}

	var errs []error
	for _, appt := range completed {
		_, err := r.ledger.PaymentFor(ctx, tenantID, appt.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		if err := r.scheduler.RetryPayment(ctx, tenantID, appt.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Republished++
	}

	linked, err := r.ledger.LinkedTransactions(ctx, tenantID)
	if err != nil {
		return res, errors.Join(append(errs, err)...)
	}
	for _, tx := range linked {
		_, err := r.scheduler.GetAppointment(ctx, tenantID, *tx.AppointmentID)
		if !errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err := r.ledger.UnlinkAppointment(ctx, tenantID, *tx.AppointmentID); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Unlinked++
	}
	return res, errors.Join(errs...)
}

// JobSchedule holds the cron expressions for JobRunner.
type JobSchedule struct {
	Reminders string
	Reconcile string
	Location  *time.Location
	Timeout   time.Duration
}

// JobRunner runs the reminder and reconciliation passes on cron schedules.
// An empty schedule disables that job.
type JobRunner struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewJobRunner(sched JobSchedule, reminders *ReminderService, reconciler *Reconciler, log *zap.Logger) (*JobRunner, error) {
	loc := sched.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := sched.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	j := &JobRunner{cron: cron.New(cron.WithLocation(loc)), log: log}

	if sched.Reminders != "" && reminders != nil {
		if _, err := j.cron.AddFunc(sched.Reminders, j.wrap("reminders", timeout, func(ctx context.Context) error {
			_, err := reminders.SendDailyReminders(ctx)
			return err
		})); err != nil {
			return nil, fmt.Errorf("schedule reminders %q: %w", sched.Reminders, err)
		}
	}
	if sched.Reconcile != "" && reconciler != nil {
		if _, err := j.cron.AddFunc(sched.Reconcile, j.wrap("reconcile", timeout, func(ctx context.Context) error {
			_, err := reconciler.Run(ctx)
			return err
		})); err != nil {
			return nil, fmt.Errorf("schedule reconciliation %q: %w", sched.Reconcile, err)
		}
	}
	return j, nil
}

func (j *JobRunner) wrap(name string, timeout time.Duration, fn func(context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				j.log.Error("job panicked", zap.String("job", name), zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			j.log.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		j.log.Info("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

// Jobs reports how many schedules are registered.
func (j *JobRunner) Jobs() int { return len(j.cron.Entries()) }

// Start runs the scheduled jobs until Stop.
func (j *JobRunner) Start() {
	j.cron.Start()
	j.log.Info("job scheduler started", zap.Int("jobs", j.Jobs()))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (j *JobRunner) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
