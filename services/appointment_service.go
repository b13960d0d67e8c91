// services/appointment_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"salonpro-agenda/events"
	"salonpro-agenda/metrics"
	"salonpro-agenda/models"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAppointmentInput carries a booking request; Date and StartTime are unparsed.
type CreateAppointmentInput struct {
	ClientID  uuid.UUID
	ServiceID uuid.UUID
	Date      string
	StartTime string
	Notes     string
}

type AppointmentPatch struct {
	Date      *string
	StartTime *string
	Notes     *string
}

// TransitionInput is a requested status change.
type TransitionInput struct {
	Status        models.AppointmentStatus
	PaidAmount    *decimal.Decimal
	PaymentMethod models.PaymentMethod
}

// TransitionResult reports the persisted appointment. PaymentPending is set
// when the appointment completed but its payment event could not be published yet.
type TransitionResult struct {
	Appointment    *models.Appointment `json:"appointment"`
	PaymentPending bool                `json:"paymentPending"`
}

// DayBucket holds one calendar day of appointments in start-time order.
type DayBucket struct {
	Day          time.Time            `json:"day"`
	Appointments []models.Appointment `json:"appointments"`
}

// AppointmentService owns appointments and their status lifecycle. It talks
// to the ledger only through published events.
type AppointmentService struct {
	appointments store.Repository[models.Appointment]
	clients      store.Repository[models.Client]
	services     store.Repository[models.Service]
	publisher    events.Publisher
	now          func() time.Time
	log          *zap.Logger
}

func NewAppointmentService(
	appointments store.Repository[models.Appointment],
	clients store.Repository[models.Client],
	services store.Repository[models.Service],
	publisher events.Publisher,
	now func() time.Time,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		clients:      clients,
		services:     services,
		publisher:    publisher,
		now:          now,
		log:          log,
	}
}

// CreateAppointment books a slot, snapshotting the service name, price and duration.
func (s *AppointmentService) CreateAppointment(ctx context.Context, tenantID uuid.UUID, in CreateAppointmentInput) (*models.Appointment, error) {
	switch {
	case in.ClientID == uuid.Nil:
		return nil, models.NewValidationError("clientId", "is required")
	case in.ServiceID == uuid.Nil:
		return nil, models.NewValidationError("serviceId", "is required")
	}
	date, err := parseAppointmentDate(in.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseStartTime(in.StartTime)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.Get(ctx, tenantID, in.ClientID)
	if err != nil {
		return nil, storeError(err, "client", in.ClientID)
	}
	if !client.IsActive {
		return nil, models.NewValidationError("clientId", "client is inactive")
	}
	service, err := s.services.Get(ctx, tenantID, in.ServiceID)
	if err != nil {
		return nil, storeError(err, "service", in.ServiceID)
	}
	if !service.IsActive {
		return nil, models.NewValidationError("serviceId", "service is inactive")
	}
	if service.DurationMinutes <= 0 {
		return nil, models.NewValidationError("serviceId", "service has no duration")
	}

	end, err := endTime(start, service.DurationMinutes)
	if err != nil {
		return nil, err
	}

	appt := models.Appointment{
		Base:            models.Base{TenantID: tenantID},
		ClientID:        client.ID,
		ServiceID:       service.ID,
		ServiceName:     service.Name,
		Price:           service.Price,
		DurationMinutes: service.DurationMinutes,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		Status:          models.StatusScheduled,
		Notes:           strings.TrimSpace(in.Notes),
	}
	if err := s.appointments.Insert(ctx, tenantID, &appt); err != nil {
		return nil, storeError(err, "appointment", uuid.Nil)
	}

	metrics.AppointmentsCreated.Inc()
	s.log.Info("appointment created",
		zap.Stringer("tenant_id", tenantID),
		zap.Stringer("appointment_id", appt.ID),
		zap.String("date", utils.StoredDay(appt.Date).Format(utils.DateLayout)),
		zap.Stringer("start", appt.StartTime))
	return &appt, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.appointments.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "appointment", id)
	}
	return &appt, nil
}

// UpdateAppointment changes date, time or notes of an open appointment. The
// end time follows the duration booked with it.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, tenantID, id uuid.UUID, patch AppointmentPatch) (*models.Appointment, error) {
	appt, err := s.appointments.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "appointment", id)
	}
	if !appt.Editable() {
		return nil, models.NewInvalidStateError("appointment", id.String(),
			fmt.Sprintf("a %s appointment cannot be changed", appt.Status))
	}

	if patch.Date != nil {
		if appt.Date, err = parseAppointmentDate(*patch.Date); err != nil {
			return nil, err
		}
	}
	if patch.StartTime != nil {
		if appt.StartTime, err = parseStartTime(*patch.StartTime); err != nil {
			return nil, err
		}
	}
	if patch.Notes != nil {
		appt.Notes = strings.TrimSpace(*patch.Notes)
	}
	if appt.EndTime, err = endTime(appt.StartTime, appt.DurationMinutes); err != nil {
		return nil, err
	}

	if err := s.appointments.Update(ctx, tenantID, &appt); err != nil {
		return nil, storeError(err, "appointment", id)
	}
	return &appt, nil
}

// TransitionStatus moves an appointment through its lifecycle. Completing it
// persists the payment on the appointment first and then asks the ledger,
// through an event, to record the income.
func (s *AppointmentService) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, in TransitionInput) (*TransitionResult, error) {
	if !in.Status.Valid() {
		return nil, models.NewValidationError("status", fmt.Sprintf("unknown status %q", in.Status))
	}
	appt, err := s.appointments.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "appointment", id)
	}
	if !models.CanTransition(appt.Status, in.Status) {
		return nil, models.NewInvalidTransitionError(id.String(), appt.Status, in.Status)
	}

	next := appt
	next.Status = in.Status
	now := s.now()
	switch in.Status {
	case models.StatusCompleted:
		if in.PaidAmount == nil {
			return nil, models.NewValidationError("paidAmount", "is required to complete an appointment")
		}
		if !in.PaidAmount.IsPositive() {
			return nil, models.NewValidationError("paidAmount", "must be greater than zero")
		}
		if !models.FitsMoneyScale(*in.PaidAmount) {
			return nil, models.NewValidationError("paidAmount", "must have at most two decimal places")
		}
		if in.PaymentMethod != "" && !in.PaymentMethod.Valid() {
			return nil, models.NewValidationError("paymentMethod", fmt.Sprintf("unknown payment method %q", in.PaymentMethod))
		}
		paid := *in.PaidAmount
		next.PaidAmount = &paid
		next.PaymentMethod = in.PaymentMethod
		next.CompletedAt = &now
	case models.StatusCanceled:
		next.CanceledAt = &now
	case models.StatusConfirmed, models.StatusScheduled:
	}

	if err := s.appointments.Update(ctx, tenantID, &next); err != nil {
		return nil, storeError(err, "appointment", id)
	}
	metrics.AppointmentTransitions.WithLabelValues(string(next.Status)).Inc()
	s.log.Info("appointment status changed",
		zap.Stringer("tenant_id", tenantID),
		zap.Stringer("appointment_id", id),
		zap.String("from", string(appt.Status)),
		zap.String("to", string(next.Status)))

	result := &TransitionResult{Appointment: &next}
	if next.Status == models.StatusCompleted {
		if err := s.publishPayment(ctx, next); err != nil {
			metrics.PaymentEventsFailed.Inc()
			s.log.Error("payment event not published",
				zap.Stringer("appointment_id", id),
				zap.Error(err))
			result.PaymentPending = true
		}
	}
	return result, nil
}

// RetryPayment publishes the payment event of a completed appointment again.
func (s *AppointmentService) RetryPayment(ctx context.Context, tenantID, id uuid.UUID) error {
	appt, err := s.appointments.Get(ctx, tenantID, id)
	if err != nil {
		return storeError(err, "appointment", id)
	}
	if appt.Status != models.StatusCompleted || appt.PaidAmount == nil {
		return models.NewInvalidStateError("appointment", id.String(), "only completed appointments carry a payment")
	}
	if err := s.publishPayment(ctx, appt); err != nil {
		return fmt.Errorf("publish payment for appointment %s: %w", id, err)
	}
	return nil
}

func (s *AppointmentService) publishPayment(ctx context.Context, appt models.Appointment) error {
	description := appt.ServiceName
	if client, err := s.clients.Get(ctx, appt.TenantID, appt.ClientID); err == nil {
		description = fmt.Sprintf("%s - %s", appt.ServiceName, client.Name)
	}
	e := events.NewPaymentRequested(events.PaymentRequest{
		TenantID:      appt.TenantID,
		AppointmentID: appt.ID,
		Amount:        *appt.PaidAmount,
		PaymentMethod: string(appt.PaymentMethod),
		Description:   description,
		Date:          appt.Date,
	}, s.now())
	return s.publisher.Publish(ctx, e)
}

// DeleteAppointment removes the appointment, then asks the ledger to drop
// references to it. Transactions themselves are kept.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.appointments.Delete(ctx, tenantID, id); err != nil {
		return storeError(err, "appointment", id)
	}
	if err := s.publisher.Publish(ctx, events.NewAppointmentRemoved(tenantID, id, s.now())); err != nil {
		s.log.Error("appointment removal event not published",
			zap.Stringer("appointment_id", id),
			zap.Error(err))
	}
	return nil
}

// ListForRange returns appointments dated within [start, end], by day then start time.
func (s *AppointmentService) ListForRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]models.Appointment, error) {
	first, last := utils.CivilDate(start), utils.CivilDate(end)
	if last.Before(first) {
		return nil, models.NewInvalidFilterError("range", fmt.Sprintf("%s..%s", first.Format(utils.DateLayout), last.Format(utils.DateLayout)))
	}
	rows, err := s.appointments.Find(ctx, tenantID, store.Filter{}.Between("date", first, last))
	if err != nil {
		return nil, storeError(err, "appointment", uuid.Nil)
	}
	SortAppointments(rows)
	return rows, nil
}

// Week returns the Sunday-first calendar week containing anchor.
func (s *AppointmentService) Week(ctx context.Context, tenantID uuid.UUID, anchor time.Time) ([]DayBucket, error) {
	days := utils.WeekDays(anchor)
	appts, err := s.ListForRange(ctx, tenantID, days[0], days[len(days)-1])
	if err != nil {
		return nil, err
	}
	return GroupByDay(appts, days), nil
}

// Upcoming lists the next open appointments from now on.
func (s *AppointmentService) Upcoming(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Appointment, error) {
	now := s.now()
	today := utils.CivilDate(now)
	clock := models.ClockTime(now.Hour()*60 + now.Minute())

	appts, err := s.ListForRange(ctx, tenantID, today, today.AddDate(0, 0, 60))
	if err != nil {
		return nil, err
	}
	var out []models.Appointment
	for _, a := range appts {
		if a.Status.Terminal() {
			continue
		}
		if a.Date.Equal(today) && a.StartTime < clock {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// CompletedWithin lists completed appointments dated inside [start, end].
func (s *AppointmentService) CompletedWithin(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]models.Appointment, error) {
	rows, err := s.appointments.Find(ctx, tenantID,
		store.Where("status", models.StatusCompleted).Between("date", utils.CivilDate(start), utils.CivilDate(end)))
	if err != nil {
		return nil, storeError(err, "appointment", uuid.Nil)
	}
	SortAppointments(rows)
	return rows, nil
}

func SortAppointments(appts []models.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool { return appts[i].Before(appts[j]) })
}

// GroupByDay buckets appointments per day in days. Every day gets a bucket,
// empty or not; appointments outside days are left out.
func GroupByDay(appts []models.Appointment, days []time.Time) []DayBucket {
	buckets := make([]DayBucket, len(days))
	index := make(map[time.Time]int, len(days))
	for i, d := range days {
		day := utils.CivilDate(d)
		buckets[i] = DayBucket{Day: day, Appointments: []models.Appointment{}}
		index[day] = i
	}

	sorted := append([]models.Appointment(nil), appts...)
	SortAppointments(sorted)
	for _, a := range sorted {
		if i, ok := index[utils.StoredDay(a.Date)]; ok {
			buckets[i].Appointments = append(buckets[i].Appointments, a)
		}
	}
	return buckets
}

func parseAppointmentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, models.NewValidationError("date", "is required")
	}
	d, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, models.NewValidationError("date", "must be a YYYY-MM-DD date")
	}
	return d, nil
}

func parseStartTime(s string) (models.ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, models.NewValidationError("startTime", "is required")
	}
	t, err := models.ParseClockTime(s)
	if err != nil {
		return 0, models.NewValidationError("startTime", "must be a HH:MM time")
	}
	return t, nil
}

func endTime(start models.ClockTime, duration int) (models.ClockTime, error) {
	end := start.Add(duration)
	if !end.Valid() || end <= start {
		return 0, models.NewValidationError("startTime", "appointment must end before midnight")
	}
	return end, nil
}
