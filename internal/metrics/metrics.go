// Package metrics holds the Prometheus instruments of the complaint registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registered    prometheus.Counter
	Rejected      *prometheus.CounterVec
	Responded     prometheus.Counter
	Notifications *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registered: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaints_registered_total",
			Help: "Total number of complaints successfully registered",
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_rejected_total",
			Help: "Registrations rejected, by reason",
		}, []string{"reason"}),
		Responded: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaints_responded_total",
			Help: "Total number of responses attached to complaints",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_notifications_total",
			Help: "New-complaint notifications, by result",
		}, []string{"result"}),
	}
}

// IncrementRegistered counts a successful registration.
func (m *Metrics) IncrementRegistered() {
	if m == nil {
		return
	}
	m.Registered.Inc()
}

// IncrementRejected counts a rejected registration.
func (m *Metrics) IncrementRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

// IncrementResponded counts an attached response.
func (m *Metrics) IncrementResponded() {
	if m == nil {
		return
	}
	m.Responded.Inc()
}

// ObserveNotification counts a notification outcome.
func (m *Metrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.Notifications.WithLabelValues(result).Inc()
}
