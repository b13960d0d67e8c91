// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"salonpro-agenda/metrics"
	"salonpro-agenda/models"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a reminder message and returns the provider's message id.
type Notifier interface {
	Send(ctx context.Context, channel models.ReminderChannel, to, body string) (string, error)
}

// TenantLister enumerates tenants for background jobs.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]models.Tenant, error)
}

type TemplateInput struct {
	Name     string
	Message  string
	IsActive *bool
}

// ReminderRun counts the outcome of one reminder pass.
type ReminderRun struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (r *ReminderRun) add(o ReminderRun) {
	r.Sent += o.Sent
	r.Failed += o.Failed
	r.Skipped += o.Skipped
}

// ReminderService sends day-before appointment reminders.
type ReminderService struct {
	tenants      TenantLister
	appointments store.Repository[models.Appointment]
	clients      store.Repository[models.Client]
	templates    store.Repository[models.ReminderTemplate]
	logs         store.Repository[models.ReminderLog]
	notifier     Notifier
	now          func() time.Time
	log          *zap.Logger
}

func NewReminderService(
	tenants TenantLister,
	appointments store.Repository[models.Appointment],
	clients store.Repository[models.Client],
	templates store.Repository[models.ReminderTemplate],
	logs store.Repository[models.ReminderLog],
	notifier Notifier,
	now func() time.Time,
	log *zap.Logger,
) *ReminderService {
	return &ReminderService{
		tenants:      tenants,
		appointments: appointments,
		clients:      clients,
		templates:    templates,
		logs:         logs,
		notifier:     notifier,
		now:          now,
		log:          log,
	}
}

// SendDailyReminders notifies clients of every tenant about tomorrow's appointments.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (ReminderRun, error) {
	var total ReminderRun
	tenants, err := s.tenants.ListTenants(ctx)
	if err != nil {
		return total, fmt.Errorf("list tenants: %w", err)
	}

	s.log.Info("starting daily reminder processing", zap.Int("tenants", len(tenants)))
	var errs []error
	for _, tenant := range tenants {
		run, err := s.ProcessTenantReminders(ctx, tenant)
		total.add(run)
		if err != nil {
			s.log.Error("tenant reminders failed", zap.Stringer("tenant_id", tenant.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("tenant %s: %w", tenant.ID, err))
		}
	}
	s.log.Info("daily reminder processing completed",
		zap.Int("sent", total.Sent),
		zap.Int("failed", total.Failed),
		zap.Int("skipped", total.Skipped))
	return total, errors.Join(errs...)
}

// ProcessTenantReminders sends one reminder per open appointment dated
// tomorrow. Appointments that already have a sent reminder are skipped.
func (s *ReminderService) ProcessTenantReminders(ctx context.Context, tenant models.Tenant) (ReminderRun, error) {
	var run ReminderRun
	channel, ok := tenant.ReminderChannel()
	if !ok {
		return run, nil
	}

	tomorrow := utils.CivilDate(s.now()).AddDate(0, 0, 1)
	appts, err := s.appointments.Find(ctx, tenant.ID, store.Filter{}.Between("date", tomorrow, tomorrow))
	if err != nil {
		return run, fmt.Errorf("find appointments: %w", err)
	}
	if len(appts) == 0 {
		return run, nil
	}
	SortAppointments(appts)

	template, err := s.activeTemplate(ctx, tenant.ID)
	if err != nil {
		return run, err
	}

	for _, appt := range appts {
		if appt.Status.Terminal() {
			continue
		}
		sent, err := s.logs.Find(ctx, tenant.ID,
			store.Where("appointment_id", appt.ID).And("status", models.ReminderSent))
		if err != nil {
			return run, fmt.Errorf("find reminder logs: %w", err)
		}
		if len(sent) > 0 {
			run.Skipped++
			continue
		}

		client, err := s.clients.Get(ctx, tenant.ID, appt.ClientID)
		if err != nil || client.Phone == "" {
			run.Skipped++
			continue
		}

		startsAt := appt.StartTime.On(utils.StoredDay(appt.Date))
		message := template.Render(models.ReminderValues{
			ClientName:  client.Name,
			ServiceName: appt.ServiceName,
			Date:        startsAt.Format("02/01/2006"),
			Time:        startsAt.Format("15:04"),
			SalonName:   tenant.Name,
		})

		entry := models.ReminderLog{
			Base:          models.Base{TenantID: tenant.ID},
			AppointmentID: appt.ID,
			ClientID:      client.ID,
			TemplateID:    template.ID,
			Message:       message,
			Status:        models.ReminderSent,
			Channel:       channel,
			SentAt:        s.now(),
		}
		sid, err := s.notifier.Send(ctx, channel, client.Phone, message)
		if err != nil {
			s.log.Warn("failed to send reminder",
				zap.Stringer("appointment_id", appt.ID),
				zap.String("channel", string(channel)),
				zap.Error(err))
			entry.Status = models.ReminderFailed
			entry.ErrorMessage = err.Error()
			run.Failed++
		} else {
			s.log.Info("reminder sent", zap.Stringer("appointment_id", appt.ID), zap.String("sid", sid))
			run.Sent++
		}
		metrics.RemindersSent.WithLabelValues(string(channel), string(entry.Status)).Inc()

		if err := s.logs.Insert(ctx, tenant.ID, &entry); err != nil {
			s.log.Error("failed to log reminder", zap.Stringer("appointment_id", appt.ID), zap.Error(err))
		}
	}
	return run, nil
}

// activeTemplate returns the first active template by name, or the built-in
// message when the tenant has none.
func (s *ReminderService) activeTemplate(ctx context.Context, tenantID uuid.UUID) (models.ReminderTemplate, error) {
	templates, err := s.templates.Find(ctx, tenantID, store.Where("is_active", true))
	if err != nil {
		return models.ReminderTemplate{}, fmt.Errorf("find templates: %w", err)
	}
	if len(templates) == 0 {
		return models.ReminderTemplate{Message: models.DefaultReminderMessage}, nil
	}
	sortTemplates(templates)
	return templates[0], nil
}

func (s *ReminderService) ListTemplates(ctx context.Context, tenantID uuid.UUID) ([]models.ReminderTemplate, error) {
	templates, err := s.templates.Find(ctx, tenantID, store.Filter{})
	if err != nil {
		return nil, storeError(err, "reminder template", uuid.Nil)
	}
	sortTemplates(templates)
	return templates, nil
}

func (s *ReminderService) CreateTemplate(ctx context.Context, tenantID uuid.UUID, in TemplateInput) (*models.ReminderTemplate, error) {
	t := models.ReminderTemplate{
		Base:     models.Base{TenantID: tenantID},
		Name:     strings.TrimSpace(in.Name),
		Message:  strings.TrimSpace(in.Message),
		IsActive: true,
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	if err := s.templates.Insert(ctx, tenantID, &t); err != nil {
		return nil, storeError(err, "reminder template", uuid.Nil)
	}
	return &t, nil
}

func (s *ReminderService) UpdateTemplate(ctx context.Context, tenantID, id uuid.UUID, in TemplateInput) (*models.ReminderTemplate, error) {
	t, err := s.templates.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "reminder template", id)
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		t.Name = name
	}
	if msg := strings.TrimSpace(in.Message); msg != "" {
		t.Message = msg
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	if err := s.templates.Update(ctx, tenantID, &t); err != nil {
		return nil, storeError(err, "reminder template", id)
	}
	return &t, nil
}

func (s *ReminderService) DeleteTemplate(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.templates.Delete(ctx, tenantID, id); err != nil {
		return storeError(err, "reminder template", id)
	}
	return nil
}

// ListLogs returns reminder deliveries inside the window, newest first.
func (s *ReminderService) ListLogs(ctx context.Context, tenantID uuid.UUID, w Window) ([]models.ReminderLog, error) {
	logs, err := s.logs.Find(ctx, tenantID, store.Filter{}.Between("sent_at", w.Start, w.End))
	if err != nil {
		return nil, storeError(err, "reminder log", uuid.Nil)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].SentAt.After(logs[j].SentAt) })
	return logs, nil
}

func validateTemplate(t models.ReminderTemplate) error {
	switch {
	case t.Name == "":
		return models.NewValidationError("name", "is required")
	case t.Message == "":
		return models.NewValidationError("message", "is required")
	}
	return nil
}

func sortTemplates(ts []models.ReminderTemplate) {
	sort.SliceStable(ts, func(i, j int) bool {
		return strings.ToLower(ts[i].Name) < strings.ToLower(ts[j].Name)
	})
}
