// Package events carries the messages exchanged between the appointment
// scheduler and the ledger.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	// KindPaymentRequested asks the ledger to record the income of a completed appointment.
	KindPaymentRequested Kind = "appointment.payment_requested"
	// KindAppointmentRemoved asks the ledger to clear back-references to a deleted appointment.
	KindAppointmentRemoved Kind = "appointment.removed"
)

type Event struct {
	ID            uuid.UUID       `json:"id"`
	Kind          Kind            `json:"kind"`
	TenantID      uuid.UUID       `json:"tenantId"`
	AppointmentID uuid.UUID       `json:"appointmentId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Description   string          `json:"description,omitempty"`
	Date          time.Time       `json:"date"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// PaymentRequest is the payload of a KindPaymentRequested event.
type PaymentRequest struct {
	TenantID      uuid.UUID
	AppointmentID uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
	Description   string
	Date          time.Time
}

func NewPaymentRequested(p PaymentRequest, at time.Time) Event {
	return Event{
		ID:            uuid.New(),
		Kind:          KindPaymentRequested,
		TenantID:      p.TenantID,
		AppointmentID: p.AppointmentID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		Description:   p.Description,
		Date:          p.Date,
		OccurredAt:    at,
	}
}

func NewAppointmentRemoved(tenantID, appointmentID uuid.UUID, at time.Time) Event {
	return Event{
		ID:            uuid.New(),
		Kind:          KindAppointmentRemoved,
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		OccurredAt:    at,
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return e, err
	}
	switch e.Kind {
	case KindPaymentRequested, KindAppointmentRemoved:
	default:
		return e, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.TenantID == uuid.Nil || e.AppointmentID == uuid.Nil {
		return e, fmt.Errorf("event %s is missing tenant or appointment", e.ID)
	}
	return e, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Handler interface {
	HandleEvent(ctx context.Context, e Event) error
}

type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, e Event) error { return f(ctx, e) }
