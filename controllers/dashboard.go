package controllers

import (
	"net/http"
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// DashboardStats is the payload of the dashboard home
type DashboardStats struct {
	AppointmentsToday int                  `json:"appointmentsToday"`
	ActiveClients     int                  `json:"activeClients"`
	Month             services.Summary     `json:"month"`
	Upcoming          []models.Appointment `json:"upcoming"`
}

type DashboardController struct {
	catalog   *services.CatalogService
	scheduler *services.AppointmentService
	ledger    *services.LedgerService
	now       func() time.Time
}

func NewDashboardController(
	catalog *services.CatalogService,
	scheduler *services.AppointmentService,
	ledger *services.LedgerService,
	now func() time.Time,
) *DashboardController {
	return &DashboardController{catalog: catalog, scheduler: scheduler, ledger: ledger, now: now}
}

// Stats gathers the dashboard figures concurrently
func (dc *DashboardController) Stats(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	today := dc.now()

	var stats DashboardStats
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		appts, err := dc.scheduler.ListForRange(ctx, tenantID, today, today)
		if err != nil {
			return err
		}
		for _, a := range appts {
			if a.Status != models.StatusCanceled {
				stats.AppointmentsToday++
			}
		}
		return nil
	})
	g.Go(func() error {
		clients, err := dc.catalog.ListClients(ctx, tenantID, services.ClientFilter{Status: services.ClientsActive})
		stats.ActiveClients = len(clients)
		return err
	})
	g.Go(func() error {
		txs, _, err := dc.ledger.Query(ctx, tenantID, services.TransactionFilter{Window: services.WindowThisMonth})
		stats.Month = services.Summarize(txs)
		return err
	})
	g.Go(func() error {
		upcoming, err := dc.scheduler.Upcoming(ctx, tenantID, 5)
		stats.Upcoming = upcoming
		return err
	})
	if err := g.Wait(); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to load dashboard")
		return
	}
	if stats.Upcoming == nil {
		stats.Upcoming = []models.Appointment{}
	}
	c.JSON(http.StatusOK, stats)
}
