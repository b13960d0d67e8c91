// controllers/appointment.go
package controllers

import (
	"net/http"
	"strings"
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAppointmentInput defines the expected JSON structure for booking an appointment
type CreateAppointmentInput struct {
	ClientID  uuid.UUID `json:"clientId" binding:"required"`
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
	Date      string    `json:"date" binding:"required"`      // YYYY-MM-DD
	StartTime string    `json:"startTime" binding:"required"` // HH:MM
	Notes     string    `json:"notes"`
}

// UpdateAppointmentInput defines the editable fields of an open appointment
type UpdateAppointmentInput struct {
	Date      *string `json:"date"`
	StartTime *string `json:"startTime"`
	Notes     *string `json:"notes"`
}

// UpdateStatusInput defines the JSON body of a status change
type UpdateStatusInput struct {
	Status        string           `json:"status" binding:"required"`
	PaidAmount    *decimal.Decimal `json:"paidAmount"`
	PaymentMethod string           `json:"paymentMethod"`
}

// AppointmentController serves the appointment book
type AppointmentController struct {
	scheduler *services.AppointmentService
	now       func() time.Time
}

func NewAppointmentController(scheduler *services.AppointmentService, now func() time.Time) *AppointmentController {
	return &AppointmentController{scheduler: scheduler, now: now}
}

// Create books an appointment for the salon
func (ac *AppointmentController) Create(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var input CreateAppointmentInput
	if !bindJSON(c, &input) {
		return
	}
	appt, err := ac.scheduler.CreateAppointment(c.Request.Context(), tenantID, services.CreateAppointmentInput{
		ClientID:  input.ClientID,
		ServiceID: input.ServiceID,
		Date:      input.Date,
		StartTime: input.StartTime,
		Notes:     input.Notes,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to create appointment")
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// List returns appointments between ?start and ?end, defaulting to the current month.
func (ac *AppointmentController) List(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	now := ac.now()
	start, ok := dateQuery(c, "start", now.Location())
	if !ok {
		return
	}
	end, ok := dateQuery(c, "end", now.Location())
	if !ok {
		return
	}
	from, to := utils.FirstOfMonth(now), utils.LastOfMonth(now)
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}

	appts, err := ac.scheduler.ListForRange(c.Request.Context(), tenantID, from, to)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve appointments")
		return
	}
	c.JSON(http.StatusOK, appts)
}

// Week groups the Sunday-to-Saturday week around ?date (default today) by day.
func (ac *AppointmentController) Week(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	now := ac.now()
	anchor, ok := dateQuery(c, "date", now.Location())
	if !ok {
		return
	}
	if anchor == nil {
		anchor = &now
	}
	days, err := ac.scheduler.Week(c.Request.Context(), tenantID, *anchor)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve week")
		return
	}
	c.JSON(http.StatusOK, days)
}

// Upcoming lists the next open appointments, ?limit defaults to 10
func (ac *AppointmentController) Upcoming(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 10)
	if !ok {
		return
	}
	appts, err := ac.scheduler.Upcoming(c.Request.Context(), tenantID, limit)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve upcoming appointments")
		return
	}
	c.JSON(http.StatusOK, appts)
}

// Get retrieves a single appointment by ID
func (ac *AppointmentController) Get(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	appt, err := ac.scheduler.GetAppointment(c.Request.Context(), tenantID, id)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Database error")
		return
	}
	c.JSON(http.StatusOK, appt)
}

// Update changes the date, time or notes of an open appointment
func (ac *AppointmentController) Update(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	var input UpdateAppointmentInput
	if !bindJSON(c, &input) {
		return
	}
	appt, err := ac.scheduler.UpdateAppointment(c.Request.Context(), tenantID, id, services.AppointmentPatch{
		Date:      input.Date,
		StartTime: input.StartTime,
		Notes:     input.Notes,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to update appointment")
		return
	}
	c.JSON(http.StatusOK, appt)
}

// UpdateStatus answers 202 when the appointment completed but its income
// could not be handed to the ledger yet.
func (ac *AppointmentController) UpdateStatus(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	var input UpdateStatusInput
	if !bindJSON(c, &input) {
		return
	}
	status, err := models.ParseAppointmentStatus(input.Status)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Invalid status")
		return
	}
	result, err := ac.scheduler.TransitionStatus(c.Request.Context(), tenantID, id, services.TransitionInput{
		Status:        status,
		PaidAmount:    input.PaidAmount,
		PaymentMethod: models.PaymentMethod(strings.ToLower(strings.TrimSpace(input.PaymentMethod))),
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to update appointment status")
		return
	}
	code := http.StatusOK
	if result.PaymentPending {
		code = http.StatusAccepted
	}
	c.JSON(code, result)
}

// RetryPayment publishes the payment of a completed appointment again
func (ac *AppointmentController) RetryPayment(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	if err := ac.scheduler.RetryPayment(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to publish payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment published"})
}

// Delete removes an appointment; its ledger entries are kept
func (ac *AppointmentController) Delete(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	if err := ac.scheduler.DeleteAppointment(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to delete appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
