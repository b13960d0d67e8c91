package models

type Client struct {
	Base
	Name     string `gorm:"not null;index" json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Notes    string `gorm:"type:text" json:"notes"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}
