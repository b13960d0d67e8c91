package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"salonpro-agenda/events"
	"salonpro-agenda/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReconciler(f *fixture) *Reconciler {
	return NewReconciler(f.tenants, f.scheduler, f.ledger, 30, func() time.Time { return f.now }, zap.NewNop())
}

func TestReconcilerRepublishesMissingPayments(t *testing.T) {
	f := newFixture(t)
	ana, corte := f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60)
	pending := f.book(t, ana, corte, "2024-01-18", "10:00")
	paid := f.book(t, ana, corte, "2024-01-19", "10:00")

	_, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, paid.ID, TransitionInput{Status: models.StatusCompleted, PaidAmount: dec("50")})
	require.NoError(t, err)

	f.publisher.fail(errors.New("broker down"))
	res, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, pending.ID, TransitionInput{Status: models.StatusCompleted, PaidAmount: dec("45")})
	require.NoError(t, err)
	require.True(t, res.PaymentPending)
	f.publisher.fail(nil)

	got, err := newReconciler(f).Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Republished: 1}, got)
	assert.Equal(t, 2, f.transactions.Len())

	payment, err := f.ledger.PaymentFor(f.ctx, f.tenant, pending.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(45).Equal(payment.Amount))

	again, err := newReconciler(f).Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, again)
}

func TestReconcilerUnlinksDanglingReferences(t *testing.T) {
	f := newFixture(t)
	gone := uuid.New()
	require.NoError(t, f.ledger.HandleEvent(f.ctx, events.NewPaymentRequested(events.PaymentRequest{
		TenantID:      f.tenant,
		AppointmentID: gone,
		Amount:        decimal.NewFromInt(30),
		Date:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}, f.now)))

	got, err := newReconciler(f).ReconcileTenant(f.ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Unlinked)

	linked, err := f.ledger.LinkedTransactions(f.ctx, f.tenant)
	require.NoError(t, err)
	assert.Empty(t, linked)
	assert.Equal(t, 1, f.transactions.Len())
}

func TestReconcilerKeepsErrorsPerTenant(t *testing.T) {
	f := newFixture(t)
	f.tenants.err = errors.New("db down")
	_, err := newReconciler(f).Run(f.ctx)
	assert.Error(t, err)
}

func TestJobRunnerSchedules(t *testing.T) {
	f := newFixture(t)
	reminders := newReminders(f, &fakeNotifier{})
	reconciler := newReconciler(f)

	runner, err := NewJobRunner(JobSchedule{Reminders: "0 9 * * *", Reconcile: "*/30 * * * *", Location: saoPaulo}, reminders, reconciler, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, runner.Jobs())

	runner.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	runner.Stop(ctx)

	disabled, err := NewJobRunner(JobSchedule{Reminders: "0 9 * * *"}, reminders, reconciler, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, disabled.Jobs())

	_, err = NewJobRunner(JobSchedule{Reminders: "every morning"}, reminders, reconciler, zap.NewNop())
	assert.Error(t, err)
}
