package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated   prometheus.Counter
	UsersUpdated   prometheus.Counter
	UsersDeleted   prometheus.Counter
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a specific registerer. Tests use a fresh
// registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "uservault_users_created_total",
			Help: "Total number of user records created",
		}),
		UsersUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "uservault_users_updated_total",
			Help: "Total number of user records updated",
		}),
		UsersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "uservault_users_deleted_total",
			Help: "Total number of user records deleted",
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uservault_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(method, status).Observe(elapsed.Seconds())
}

// IncrementUsersCreated increments the created counter by 1.
func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

// IncrementUsersUpdated increments the updated counter by 1.
func (m *Metrics) IncrementUsersUpdated() {
	if m != nil {
		m.UsersUpdated.Inc()
	}
}

// IncrementUsersDeleted increments the deleted counter by 1.
func (m *Metrics) IncrementUsersDeleted() {
	if m != nil {
		m.UsersDeleted.Inc()
	}
}
