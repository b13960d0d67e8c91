package controllers

import (
	"net/http"
	"strings"

	"salonpro-agenda/models"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateProfileInput defines the salon settings an owner may change
type UpdateProfileInput struct {
	SalonName             *string      `json:"salonName"`
	SalonAddress          *string      `json:"salonAddress"`
	Phone                 *string      `json:"phone"`
	WorkingHours          models.JSONB `json:"workingHours"`
	RemindersEnabled      *bool        `json:"remindersEnabled"`
	WhatsAppNotifications *bool        `json:"whatsAppNotifications"`
	SMSNotifications      *bool        `json:"smsNotifications"`
}

// ProfileController reads and edits the settings of the caller's salon.
type ProfileController struct {
	tenants store.Repository[models.Tenant]
	log     *zap.Logger
}

func NewProfileController(tenants store.Repository[models.Tenant], log *zap.Logger) *ProfileController {
	return &ProfileController{tenants: tenants, log: log}
}

// Get returns the salon profile
func (pc *ProfileController) Get(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	tenant, err := pc.tenants.Get(c.Request.Context(), tenantID, tenantID)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// Update applies the provided profile fields
func (pc *ProfileController) Update(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var input UpdateProfileInput
	if !bindJSON(c, &input) {
		return
	}

	ctx := c.Request.Context()
	tenant, err := pc.tenants.Get(ctx, tenantID, tenantID)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return
	}

	if input.SalonName != nil {
		name := strings.TrimSpace(*input.SalonName)
		if name == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Salon name cannot be empty")
			return
		}
		tenant.Name = name
	}
	if input.SalonAddress != nil {
		tenant.Address = *input.SalonAddress
	}
	if input.Phone != nil {
		if *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		tenant.Phone = utils.NormalizePhone(*input.Phone)
	}
	if input.WorkingHours != nil {
		tenant.WorkingHours = input.WorkingHours
	}
	if input.RemindersEnabled != nil {
		tenant.RemindersEnabled = *input.RemindersEnabled
	}
	if input.WhatsAppNotifications != nil {
		tenant.WhatsAppNotifications = *input.WhatsAppNotifications
	}
	if input.SMSNotifications != nil {
		tenant.SMSNotifications = *input.SMSNotifications
	}

	if err := pc.tenants.Update(ctx, tenantID, &tenant); err != nil {
		pc.log.Error("failed to update profile", zap.Stringer("tenant_id", tenantID), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, tenant)
}
