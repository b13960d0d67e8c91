// routes/routes.go
package routes

import (
	"context"
	"net/http"
	"time"

	"salonpro-agenda/config"
	"salonpro-agenda/controllers"
	"salonpro-agenda/metrics"
	"salonpro-agenda/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Controllers bundles every HTTP handler group the router mounts.
type Controllers struct {
	Auth         *controllers.AuthController
	Profile      *controllers.ProfileController
	Clients      *controllers.ClientController
	Services     *controllers.ServiceController
	Categories   *controllers.CategoryController
	Appointments *controllers.AppointmentController
	Transactions *controllers.TransactionController
	Reports      *controllers.ReportController
	Dashboard    *controllers.DashboardController
	Reminders    *controllers.ReminderController
}

type Options struct {
	ServiceName    string
	AllowedOrigins []string
	SlowRequest    time.Duration
	Tokens         *utils.TokenManager
	Log            *zap.Logger
	// Health reports whether the database answers; nil means always healthy.
	Health func(ctx context.Context) error
}

func SetupRouter(opts Options, h Controllers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := make(map[string]bool, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", config.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", config.RequestIDHeader},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return origins[origin]
		},
	}))

	r.Use(config.PerformanceLogger(opts.Log, opts.SlowRequest))
	r.Use(metrics.NewHTTPMetrics(opts.ServiceName).Middleware())

	r.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authRequired := opts.Tokens.AuthMiddleware()

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		auth.Use(authRequired)
		auth.GET("/me", h.Auth.Me)
	}

	api := r.Group("/api")
	api.Use(authRequired)
	{
		// Profile routes
		profile := api.Group("/profile")
		{
			profile.GET("", h.Profile.Get)
			profile.PUT("", h.Profile.Update)
		}

		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", h.Clients.Create)
			clients.GET("", h.Clients.List)
			clients.GET("/:id", h.Clients.Get)
			clients.PUT("/:id", h.Clients.Update)
			clients.POST("/:id/deactivate", h.Clients.Deactivate)
			clients.POST("/:id/reactivate", h.Clients.Reactivate)
			clients.DELETE("/:id", h.Clients.Delete)
		}

		// Service routes
		services := api.Group("/services")
		{
			services.POST("", h.Services.Create)
			services.GET("", h.Services.List)
			services.GET("/:id", h.Services.Get)
			services.PUT("/:id", h.Services.Update)
			services.DELETE("/:id", h.Services.Delete)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.Categories.List)
			categories.POST("", h.Categories.Create)
			categories.PUT("/:id", h.Categories.Rename)
			categories.DELETE("/:id", h.Categories.Delete)
		}

		// Appointment routes
		appointments := api.Group("/appointments")
		{
			appointments.POST("", h.Appointments.Create)
			appointments.GET("", h.Appointments.List)
			appointments.GET("/week", h.Appointments.Week)
			appointments.GET("/upcoming", h.Appointments.Upcoming)
			appointments.GET("/:id", h.Appointments.Get)
			appointments.PUT("/:id", h.Appointments.Update)
			appointments.PATCH("/:id/status", h.Appointments.UpdateStatus)
			appointments.POST("/:id/retry-payment", h.Appointments.RetryPayment)
			appointments.DELETE("/:id", h.Appointments.Delete)
		}

		// Ledger routes
		transactions := api.Group("/transactions")
		{
			transactions.POST("", h.Transactions.Create)
			transactions.GET("", h.Transactions.List)
			transactions.GET("/export", h.Transactions.Export)
			transactions.GET("/:id", h.Transactions.Get)
			transactions.PUT("/:id", h.Transactions.Update)
			transactions.DELETE("/:id", h.Transactions.Delete)
		}

		//Reports routes
		reports := api.Group("/reports")
		{
			reports.GET("/summary", h.Reports.Summary)
			reports.GET("/revenue", h.Reports.Revenue)
			reports.GET("/categories", h.Reports.Categories)
			reports.GET("/daily", h.Reports.Daily)
		}

		// Dashboard routes
		api.GET("/dashboard/stats", h.Dashboard.Stats)

		reminders := api.Group("/reminders")
		{
			reminders.GET("/templates", h.Reminders.ListTemplates)
			reminders.POST("/templates", h.Reminders.CreateTemplate)
			reminders.PUT("/templates/:id", h.Reminders.UpdateTemplate)
			reminders.DELETE("/templates/:id", h.Reminders.DeleteTemplate)
			reminders.GET("/logs", h.Reminders.Logs)
			reminders.POST("/send", h.Reminders.SendNow)
		}
	}

	return r
}
