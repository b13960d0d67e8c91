// controllers/reminder.go
package controllers

import (
	"net/http"
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/services"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
)

// CreateReminderTemplateInput defines the expected JSON structure for a reminder template
type CreateReminderTemplateInput struct {
	Name     string `json:"name" binding:"required"`
	Message  string `json:"message" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

type UpdateReminderTemplateInput struct {
	Name     string `json:"name"`
	Message  string `json:"message"`
	IsActive *bool  `json:"isActive"`
}

// ReminderController manages reminder templates and logs
type ReminderController struct {
	reminders *services.ReminderService
	tenants   store.Repository[models.Tenant]
	now       func() time.Time
}

func NewReminderController(reminders *services.ReminderService, tenants store.Repository[models.Tenant], now func() time.Time) *ReminderController {
	return &ReminderController{reminders: reminders, tenants: tenants, now: now}
}

// ListTemplates retrieves all reminder templates for the salon
func (rc *ReminderController) ListTemplates(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	templates, err := rc.reminders.ListTemplates(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve reminder templates")
		return
	}
	c.JSON(http.StatusOK, templates)
}

// CreateTemplate creates a new reminder template
func (rc *ReminderController) CreateTemplate(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var input CreateReminderTemplateInput
	if !bindJSON(c, &input) {
		return
	}
	template, err := rc.reminders.CreateTemplate(c.Request.Context(), tenantID, services.TemplateInput{
		Name:     input.Name,
		Message:  input.Message,
		IsActive: input.IsActive,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to create reminder template")
		return
	}
	c.JSON(http.StatusCreated, template)
}

// UpdateTemplate updates an existing reminder template
func (rc *ReminderController) UpdateTemplate(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "template")
	if !ok {
		return
	}
	var input UpdateReminderTemplateInput
	if !bindJSON(c, &input) {
		return
	}
	template, err := rc.reminders.UpdateTemplate(c.Request.Context(), tenantID, id, services.TemplateInput{
		Name:     input.Name,
		Message:  input.Message,
		IsActive: input.IsActive,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to update reminder template")
		return
	}
	c.JSON(http.StatusOK, template)
}

// DeleteTemplate removes a reminder template
func (rc *ReminderController) DeleteTemplate(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "template")
	if !ok {
		return
	}
	if err := rc.reminders.DeleteTemplate(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to delete reminder template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder template deleted successfully"})
}

// Logs lists reminder deliveries for ?window (default last 30 days).
func (rc *ReminderController) Logs(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	now := rc.now()
	sel, from, to, ok := windowQuery(c, now.Location())
	if !ok {
		return
	}
	if c.Query("window") == "" && from == nil && to == nil {
		sel = services.WindowLast30
	}
	window, err := services.ResolveWindow(sel, from, to, now)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Invalid window")
		return
	}
	logs, err := rc.reminders.ListLogs(c.Request.Context(), tenantID, window)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve reminder logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}

// SendNow runs tomorrow's reminders for the caller's salon immediately.
func (rc *ReminderController) SendNow(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	tenant, err := rc.tenants.Get(c.Request.Context(), tenantID, tenantID)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return
	}
	run, err := rc.reminders.ProcessTenantReminders(c.Request.Context(), tenant)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to send reminders")
		return
	}
	c.JSON(http.StatusOK, run)
}
