package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is the business owning every client, service, private category,
// appointment and transaction.
type Tenant struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name                  string    `gorm:"not null" json:"name"`
	Address               string    `json:"address"`
	Phone                 string    `json:"phone"`
	WorkingHours          JSONB     `gorm:"type:jsonb" json:"workingHours"`
	RemindersEnabled      bool      `gorm:"default:true" json:"remindersEnabled"`
	WhatsAppNotifications bool      `gorm:"default:false" json:"whatsAppNotifications"`
	SMSNotifications      bool      `gorm:"default:false" json:"smsNotifications"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (t Tenant) GetID() uuid.UUID       { return t.ID }
func (t Tenant) GetTenantID() uuid.UUID { return t.ID }

func (t *Tenant) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) (err error) {
	t.EnsureID()
	return
}

// ReminderChannel picks the delivery channel configured for the tenant, if any.
func (t Tenant) ReminderChannel() (ReminderChannel, bool) {
	switch {
	case !t.RemindersEnabled:
		return "", false
	case t.WhatsAppNotifications:
		return ChannelWhatsApp, true
	case t.SMSNotifications:
		return ChannelSMS, true
	default:
		return "", false
	}
}

// DefaultWorkingHours is applied to tenants registering without their own schedule.
func DefaultWorkingHours() JSONB {
	return JSONB{
		"monday":    map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"tuesday":   map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"wednesday": map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"thursday":  map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"friday":    map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
		"saturday":  map[string]interface{}{"open": "09:00", "close": "18:00", "closed": false},
		"sunday":    map[string]interface{}{"open": "", "close": "", "closed": true},
	}
}

// JSONB stores free-form settings such as working hours.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	return string(b), err
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("jsonb: unsupported scan type")
	}
}
