package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleOwner UserRole = "owner"
	RoleStaff UserRole = "staff"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleStaff:
		return true
	}
	return false
}

const passwordCost = 12

type User struct {
	Base
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	Password string   `gorm:"not null" json:"-"`
	Name     string   `gorm:"not null" json:"name"`
	Phone    string   `gorm:"index" json:"phone"`
	Role     UserRole `gorm:"type:varchar(20);not null" json:"role"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
}

// BeforeCreate assigns the id and hashes the plain password set by the caller.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.EnsureID()
	if u.Role == "" {
		u.Role = RoleOwner
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), passwordCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return
}

func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
