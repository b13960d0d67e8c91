// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type ReminderChannel string

const (
	ChannelWhatsApp ReminderChannel = "whatsapp"
	ChannelSMS      ReminderChannel = "sms"
)

type ReminderStatus string

const (
	ReminderSent   ReminderStatus = "sent"
	ReminderFailed ReminderStatus = "failed"
)

type ReminderLog struct {
	Base
	AppointmentID uuid.UUID       `gorm:"type:uuid;index;not null" json:"appointmentId"`
	ClientID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"clientId"`
	TemplateID    uuid.UUID       `gorm:"type:uuid;index" json:"templateId"`
	Message       string          `gorm:"type:text" json:"message"`
	Status        ReminderStatus  `gorm:"type:varchar(20)" json:"status"`
	ErrorMessage  string          `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel       ReminderChannel `gorm:"type:varchar(20)" json:"channel"`
	SentAt        time.Time       `json:"sentAt"`
}
