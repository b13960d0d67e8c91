package models

import "github.com/shopspring/decimal"

// Service is an offering from the tenant's catalog. Appointments copy its
// price and duration when booked.
type Service struct {
	Base
	Name            string          `gorm:"not null" json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	DurationMinutes int             `gorm:"not null" json:"durationMinutes"`
	IsActive        bool            `gorm:"default:true" json:"isActive"`
}
