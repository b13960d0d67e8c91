package models

import "strings"

// ReminderTemplate is the message sent to clients the day before an appointment.
type ReminderTemplate struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Message  string `gorm:"type:text;not null" json:"message"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

const DefaultReminderMessage = "Olá [ClientName]! Lembrete do seu horário de [ServiceName] em [Date] às [Time] no [SalonName]."

// ReminderValues fills the placeholders of a template.
type ReminderValues struct {
	ClientName  string
	ServiceName string
	Date        string
	Time        string
	SalonName   string
}

func (t ReminderTemplate) Render(v ReminderValues) string {
	return strings.NewReplacer(
		"[ClientName]", v.ClientName,
		"[ServiceName]", v.ServiceName,
		"[Date]", v.Date,
		"[Time]", v.Time,
		"[SalonName]", v.SalonName,
	).Replace(t.Message)
}
