// models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MoneyPlaces is the scale of every stored money column.
const MoneyPlaces = 2

// FitsMoneyScale reports whether d is stored without rounding.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

// Transaction is a ledger entry. AppointmentID is a weak back-reference that is
// cleared, never cascaded, when the appointment goes away.
type Transaction struct {
	Base
	Type          TransactionType `gorm:"type:varchar(10);index;not null" json:"type"`
	CategoryID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"categoryId"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Date          time.Time       `gorm:"index;not null" json:"date"`
	AppointmentID *uuid.UUID      `gorm:"type:uuid;index" json:"appointmentId,omitempty"`

	CategoryName string `gorm:"-" json:"categoryName,omitempty"`
}

// AfterFind puts Date back at UTC midnight; pgx scans timestamptz into the local zone.
func (t *Transaction) AfterFind(tx *gorm.DB) (err error) {
	t.Date = t.Date.UTC()
	return
}
