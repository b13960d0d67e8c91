// controllers/report.go
package controllers

import (
	"net/http"
	"strings"
	"time"

	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
)

// ReportController handles all reporting functions
type ReportController struct {
	ledger    *services.LedgerService
	scheduler *services.AppointmentService
	now       func() time.Time
}

func NewReportController(ledger *services.LedgerService, scheduler *services.AppointmentService, now func() time.Time) *ReportController {
	return &ReportController{ledger: ledger, scheduler: scheduler, now: now}
}

// Summary totals income, expense, net and margin for the selected window.
func (rc *ReportController) Summary(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	sel, from, to, ok := windowQuery(c, rc.now().Location())
	if !ok {
		return
	}
	txs, window, err := rc.ledger.Query(c.Request.Context(), tenantID, services.TransactionFilter{Window: sel, From: from, To: to})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to build summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": window, "summary": services.Summarize(txs)})
}

// Revenue compares this month, quarter and year with the previous ones and
// lists the best selling services of the month.
func (rc *ReportController) Revenue(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	now := rc.now()
	span := services.RevenueWindow(now)
	ctx := c.Request.Context()

	txs, _, err := rc.ledger.Query(ctx, tenantID, services.TransactionFilter{
		Window: services.WindowCustom,
		From:   &span.Start,
		To:     &span.End,
		Type:   services.TypeIncome,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to calculate revenue")
		return
	}
	completed, err := rc.scheduler.CompletedWithin(ctx, tenantID, utils.FirstOfMonth(now), utils.LastOfMonth(now))
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to get top services")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"revenue":     services.BuildRevenueReport(txs, now),
		"topServices": services.TopServices(completed, 5),
	})
}

// Categories breaks the window down per category, optionally for one ?type.
func (rc *ReportController) Categories(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	sel, from, to, ok := windowQuery(c, rc.now().Location())
	if !ok {
		return
	}
	txs, window, err := rc.ledger.Query(c.Request.Context(), tenantID, services.TransactionFilter{
		Window: sel,
		From:   from,
		To:     to,
		Type:   services.TypeFilter(strings.ToLower(c.Query("type"))),
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to build category report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": window, "categories": services.ByCategory(txs)})
}

// Daily returns one income/expense point per day of the window.
func (rc *ReportController) Daily(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	sel, from, to, ok := windowQuery(c, rc.now().Location())
	if !ok {
		return
	}
	txs, window, err := rc.ledger.Query(c.Request.Context(), tenantID, services.TransactionFilter{Window: sel, From: from, To: to})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to build daily report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": window, "days": services.Daily(txs, window)})
}
