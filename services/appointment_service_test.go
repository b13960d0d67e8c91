package services

import (
	"errors"
	"testing"
	"time"

	"salonpro-agenda/events"
	"salonpro-agenda/models"
	"salonpro-agenda/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAppointmentSnapshotsService(t *testing.T) {
	f := newFixture(t)
	ana := f.client(t, "Ana")
	corte := f.service(t, "Corte", "50.00", 60)

	appt := f.book(t, ana, corte, "2024-01-15", "10:00")
	assert.Equal(t, "11:00", appt.EndTime.String())
	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.Equal(t, "Corte", appt.ServiceName)
	assert.True(t, decimal.RequireFromString("50.00").Equal(appt.Price))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), appt.Date)

	// Later catalog changes do not touch the booking.
	price := decimal.RequireFromString("70.00")
	_, err := f.catalog.UpdateService(f.ctx, f.tenant, corte.ID, ServicePatch{Price: &price})
	require.NoError(t, err)
	stored, err := f.scheduler.GetAppointment(f.ctx, f.tenant, appt.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50.00").Equal(stored.Price))
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newFixture(t)
	ana := f.client(t, "Ana")
	corte := f.service(t, "Corte", "50.00", 60)
	inactive := f.service(t, "Luzes", "200.00", 120)
	_, err := f.catalog.DeactivateService(f.ctx, f.tenant, inactive.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   CreateAppointmentInput
		kind models.ErrorKind
	}{
		{"missing client", CreateAppointmentInput{ServiceID: corte.ID, Date: "2024-01-15", StartTime: "10:00"}, models.KindValidation},
		{"missing service", CreateAppointmentInput{ClientID: ana.ID, Date: "2024-01-15", StartTime: "10:00"}, models.KindValidation},
		{"missing date", CreateAppointmentInput{ClientID: ana.ID, ServiceID: corte.ID, StartTime: "10:00"}, models.KindValidation},
		{"bad date", CreateAppointmentInput{ClientID: ana.ID, ServiceID: corte.ID, Date: "15/01/2024", StartTime: "10:00"}, models.KindValidation},
		{"bad time", CreateAppointmentInput{ClientID: ana.ID, ServiceID: corte.ID, Date: "2024-01-15", StartTime: "25:00"}, models.KindValidation},
		{"past midnight", CreateAppointmentInput{ClientID: ana.ID, ServiceID: corte.ID, Date: "2024-01-15", StartTime: "23:30"}, models.KindValidation},
		{"unknown client", CreateAppointmentInput{ClientID: uuid.New(), ServiceID: corte.ID, Date: "2024-01-15", StartTime: "10:00"}, models.KindNotFound},
		{"inactive service", CreateAppointmentInput{ClientID: ana.ID, ServiceID: inactive.ID, Date: "2024-01-15", StartTime: "10:00"}, models.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.scheduler.CreateAppointment(f.ctx, f.tenant, tt.in)
			kind, ok := models.KindOf(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.kind, kind)
		})
	}
	assert.Zero(t, f.appointments.Len())
}

func TestCreateAppointmentForeignClient(t *testing.T) {
	f := newFixture(t)
	corte := f.service(t, "Corte", "50.00", 60)
	stranger, err := f.catalog.RegisterClient(f.ctx, f.other, ClientInput{Name: "Bia"})
	require.NoError(t, err)

	_, err = f.scheduler.CreateAppointment(f.ctx, f.tenant, CreateAppointmentInput{
		ClientID: stranger.ID, ServiceID: corte.ID, Date: "2024-01-15", StartTime: "10:00",
	})
	assert.True(t, errors.Is(err, models.ErrPermission))
}

func TestCompletingRecordsPayment(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60), "2024-01-15", "10:00")

	res, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{
		Status:        models.StatusCompleted,
		PaidAmount:    dec("50.00"),
		PaymentMethod: models.PaymentPix,
	})
	require.NoError(t, err)
	assert.False(t, res.PaymentPending)
	assert.Equal(t, models.StatusCompleted, res.Appointment.Status)
	require.NotNil(t, res.Appointment.CompletedAt)

	payment, err := f.ledger.PaymentFor(f.ctx, f.tenant, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionIncome, payment.Type)
	assert.True(t, decimal.RequireFromString("50.00").Equal(payment.Amount))
	assert.Equal(t, f.category(t, f.tenant, "Serviços", models.TransactionIncome).ID, payment.CategoryID)
	assert.Equal(t, "Corte - Ana", payment.Description)
	assert.Equal(t, appt.Date, payment.Date)
	require.NotNil(t, payment.AppointmentID)
	assert.Equal(t, appt.ID, *payment.AppointmentID)

	summary := Summarize([]models.Transaction{*payment})
	assert.True(t, decimal.RequireFromString("50.00").Equal(summary.Income))
	assert.True(t, decimal.NewFromInt(1).Equal(summary.Margin))
}

func TestTransitionStateMachine(t *testing.T) {
	f := newFixture(t)
	ana, corte := f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60)

	appt := f.book(t, ana, corte, "2024-01-15", "10:00")
	res, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, res.Appointment.Status)

	_, err = f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusScheduled})
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	_, err = f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusCompleted, PaidAmount: dec("50")})
	require.NoError(t, err)

	_, err = f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusConfirmed})
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))
	stored, err := f.scheduler.GetAppointment(f.ctx, f.tenant, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	canceled := f.book(t, ana, corte, "2024-01-16", "10:00")
	res, err = f.scheduler.TransitionStatus(f.ctx, f.tenant, canceled.ID, TransitionInput{Status: models.StatusCanceled})
	require.NoError(t, err)
	assert.NotNil(t, res.Appointment.CanceledAt)
	_, err = f.scheduler.TransitionStatus(f.ctx, f.tenant, canceled.ID, TransitionInput{Status: models.StatusCompleted, PaidAmount: dec("50")})
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	_, err = f.scheduler.TransitionStatus(f.ctx, f.tenant, canceled.ID, TransitionInput{Status: "done"})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestCompletingRequiresPositivePayment(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60), "2024-01-15", "10:00")

	for _, in := range []TransitionInput{
		{Status: models.StatusCompleted},
		{Status: models.StatusCompleted, PaidAmount: dec("0")},
		{Status: models.StatusCompleted, PaidAmount: dec("-10")},
		{Status: models.StatusCompleted, PaidAmount: dec("0.004")},
		{Status: models.StatusCompleted, PaidAmount: dec("50"), PaymentMethod: "cheque"},
	} {
		_, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, in)
		assert.True(t, errors.Is(err, models.ErrValidation), "input %+v", in)
	}

	stored, err := f.scheduler.GetAppointment(f.ctx, f.tenant, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, stored.Status)
	assert.Nil(t, stored.PaidAmount)
	assert.Zero(t, f.transactions.Len())
}

func TestTransitionStoreFailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60), "2024-01-15", "10:00")
	f.appointments.FailOn(store.OpUpdate, errUnavailable)

	res, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusCompleted, PaidAmount: dec("50")})
	assert.ErrorIs(t, err, errUnavailable)
	assert.Nil(t, res)
	assert.Empty(t, f.publisher.published())
	assert.Zero(t, f.transactions.Len())

	f.appointments.FailOn(store.OpUpdate, nil)
	stored, err := f.scheduler.GetAppointment(f.ctx, f.tenant, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, stored.Status)
}

func TestPublishFailureLeavesPaymentPending(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60), "2024-01-15", "10:00")
	f.publisher.fail(errors.New("broker down"))

	res, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusCompleted, PaidAmount: dec("50")})
	require.NoError(t, err)
	assert.True(t, res.PaymentPending)
	assert.Equal(t, models.StatusCompleted, res.Appointment.Status)
	assert.Zero(t, f.transactions.Len())

	assert.Error(t, f.scheduler.RetryPayment(f.ctx, f.tenant, appt.ID))

	f.publisher.fail(nil)
	require.NoError(t, f.scheduler.RetryPayment(f.ctx, f.tenant, appt.ID))
	require.NoError(t, f.scheduler.RetryPayment(f.ctx, f.tenant, appt.ID))
	assert.Equal(t, 1, f.transactions.Len())
}

func TestRetryPaymentRequiresCompletion(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60), "2024-01-15", "10:00")
	assert.True(t, errors.Is(f.scheduler.RetryPayment(f.ctx, f.tenant, appt.ID), models.ErrInvalidState))
}

func TestUpdateAppointment(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.client(t, "Ana"), f.service(t, "Escova", "80.00", 45), "2024-01-15", "10:00")

	date, start, notes := "2024-01-17", "14:30", "  trazer foto  "
	updated, err := f.scheduler.UpdateAppointment(f.ctx, f.tenant, appt.ID, AppointmentPatch{Date: &date, StartTime: &start, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), updated.Date)
	assert.Equal(t, "15:15", updated.EndTime.String())
	assert.Equal(t, "trazer foto", updated.Notes)

	late := "23:30"
	_, err = f.scheduler.UpdateAppointment(f.ctx, f.tenant, appt.ID, AppointmentPatch{StartTime: &late})
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusCanceled})
	require.NoError(t, err)
	_, err = f.scheduler.UpdateAppointment(f.ctx, f.tenant, appt.ID, AppointmentPatch{Notes: &notes})
	assert.True(t, errors.Is(err, models.ErrInvalidState))
}

func TestDeleteAppointmentKeepsTransaction(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.client(t, "Ana"), f.service(t, "Corte", "50.00", 60), "2024-01-15", "10:00")
	_, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, appt.ID, TransitionInput{Status: models.StatusCompleted, PaidAmount: dec("50")})
	require.NoError(t, err)

	assert.True(t, errors.Is(f.scheduler.DeleteAppointment(f.ctx, f.other, appt.ID), models.ErrPermission))
	require.NoError(t, f.scheduler.DeleteAppointment(f.ctx, f.tenant, appt.ID))

	assert.Zero(t, f.appointments.Len())
	assert.Equal(t, 1, f.transactions.Len())
	linked, err := f.ledger.LinkedTransactions(f.ctx, f.tenant)
	require.NoError(t, err)
	assert.Empty(t, linked)

	kinds := []events.Kind{}
	for _, e := range f.publisher.published() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []events.Kind{events.KindPaymentRequested, events.KindAppointmentRemoved}, kinds)
}

func TestListForRangeAndWeek(t *testing.T) {
	f := newFixture(t)
	ana, corte := f.client(t, "Ana"), f.service(t, "Corte", "50.00", 30)
	late := f.book(t, ana, corte, "2024-01-16", "15:00")
	early := f.book(t, ana, corte, "2024-01-16", "09:00")
	sunday := f.book(t, ana, corte, "2024-01-14", "11:00")
	f.book(t, ana, corte, "2024-01-21", "11:00")

	appts, err := f.scheduler.ListForRange(f.ctx, f.tenant, at(2024, 1, 14, 0, 0), at(2024, 1, 20, 0, 0))
	require.NoError(t, err)
	require.Len(t, appts, 3)
	assert.Equal(t, []uuid.UUID{sunday.ID, early.ID, late.ID}, []uuid.UUID{appts[0].ID, appts[1].ID, appts[2].ID})

	_, err = f.scheduler.ListForRange(f.ctx, f.tenant, at(2024, 1, 20, 0, 0), at(2024, 1, 14, 0, 0))
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))

	week, err := f.scheduler.Week(f.ctx, f.tenant, at(2024, 1, 17, 12, 0))
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, time.Sunday, week[0].Day.Weekday())
	assert.Len(t, week[0].Appointments, 1)
	assert.Len(t, week[2].Appointments, 2)
	assert.NotNil(t, week[6].Appointments)
	assert.Empty(t, week[6].Appointments)
}

func TestGroupByDayPreservesCount(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	mk := func(d int, start string) models.Appointment {
		c, err := models.ParseClockTime(start)
		require.NoError(t, err)
		return models.Appointment{Base: models.Base{ID: uuid.New()}, Date: day(d), StartTime: c}
	}
	appts := []models.Appointment{mk(3, "16:00"), mk(1, "10:00"), mk(3, "08:00"), mk(2, "09:00"), mk(9, "09:00")}
	days := []time.Time{day(1), day(2), day(3), day(4)}

	buckets := GroupByDay(appts, days)
	require.Len(t, buckets, 4)
	total := 0
	for _, b := range buckets {
		total += len(b.Appointments)
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, "08:00", buckets[2].Appointments[0].StartTime.String())
	assert.Equal(t, "16:00", buckets[2].Appointments[1].StartTime.String())
	assert.Empty(t, buckets[3].Appointments)
	assert.Equal(t, "16:00", appts[0].StartTime.String())
}

func TestGroupByDayReadsStoredDay(t *testing.T) {
	stored := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).In(brt)
	appts := []models.Appointment{{Base: models.Base{ID: uuid.New()}, Date: stored}}
	days := []time.Time{time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}

	buckets := GroupByDay(appts, days)
	assert.Empty(t, buckets[0].Appointments)
	assert.Len(t, buckets[1].Appointments, 1)
}

func TestUpcoming(t *testing.T) {
	f := newFixture(t)
	ana, corte := f.client(t, "Ana"), f.service(t, "Corte", "50.00", 30)
	f.book(t, ana, corte, "2024-01-20", "09:00")
	later := f.book(t, ana, corte, "2024-01-20", "17:00")
	tomorrow := f.book(t, ana, corte, "2024-01-21", "10:00")
	canceled := f.book(t, ana, corte, "2024-01-21", "08:00")
	_, err := f.scheduler.TransitionStatus(f.ctx, f.tenant, canceled.ID, TransitionInput{Status: models.StatusCanceled})
	require.NoError(t, err)
	f.book(t, ana, corte, "2024-01-25", "10:00")

	next, err := f.scheduler.Upcoming(f.ctx, f.tenant, 2)
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, later.ID, next[0].ID)
	assert.Equal(t, tomorrow.ID, next[1].ID)
}
