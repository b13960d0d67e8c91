package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled:
		return true
	case StatusScheduled, StatusConfirmed:
		return false
	}
	return false
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown appointment status %q", s))
	}
	return status, nil
}

// CanTransition is the appointment state machine. Confirmation is optional,
// so scheduled may complete directly.
func CanTransition(from, to AppointmentStatus) bool {
	switch from {
	case StatusScheduled:
		return to == StatusConfirmed || to == StatusCompleted || to == StatusCanceled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCanceled
	case StatusCompleted, StatusCanceled:
		return false
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentPix        PaymentMethod = "pix"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentTransfer   PaymentMethod = "transfer"
	PaymentOther      PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentPix, PaymentCreditCard, PaymentDebitCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

type Appointment struct {
	Base
	ClientID  uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`
	ServiceID uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceId"`

	// Snapshot of the service at booking time.
	ServiceName     string          `json:"serviceName"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	DurationMinutes int             `gorm:"not null" json:"durationMinutes"`

	Date      time.Time         `gorm:"index;not null" json:"date"`
	StartTime ClockTime         `gorm:"type:varchar(5);not null" json:"startTime"`
	EndTime   ClockTime         `gorm:"type:varchar(5);not null" json:"endTime"`
	Status    AppointmentStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	Notes     string            `gorm:"type:text" json:"notes"`

	PaidAmount    *decimal.Decimal `gorm:"type:decimal(10,2)" json:"paidAmount,omitempty"`
	PaymentMethod PaymentMethod    `gorm:"type:varchar(20)" json:"paymentMethod,omitempty"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	CanceledAt    *time.Time       `json:"canceledAt,omitempty"`
}

// AfterFind puts Date back at UTC midnight; pgx scans timestamptz into the local zone.
func (a *Appointment) AfterFind(tx *gorm.DB) (err error) {
	a.Date = a.Date.UTC()
	return
}

// Editable reports whether date, time and notes may still change.
func (a Appointment) Editable() bool {
	return !a.Status.Terminal()
}

// Before orders appointments by day, then start time.
func (a Appointment) Before(b Appointment) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.StartTime < b.StartTime
}
