package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	AppointmentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appointments_created_total",
		Help: "Appointments booked",
	})

	AppointmentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_transitions_total",
			Help: "Appointment status changes by target status",
		},
		[]string{"status"},
	)

	TransactionsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_recorded_total",
			Help: "Ledger transactions recorded by type",
		},
		[]string{"type"},
	)

	PaymentEventsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_events_failed_total",
		Help: "Completed appointments whose payment event could not be published",
	})

	RemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_reminders_total",
			Help: "Appointment reminders by channel and outcome",
		},
		[]string{"channel", "status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDurationHistogram,
			AppointmentsCreated,
			AppointmentTransitions,
			TransactionsRecorded,
			PaymentEventsFailed,
			RemindersSent,
		)
	})
}

// HTTPMetrics records request counts and latency for one service.
type HTTPMetrics struct {
	ServiceName string
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	Register()
	return &HTTPMetrics{ServiceName: serviceName}
}

func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestCounter.WithLabelValues(m.ServiceName, c.Request.Method, path, status).Inc()
		RequestDurationHistogram.WithLabelValues(m.ServiceName, c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
