// Package metrics holds the Prometheus instruments of the registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	KindPerson  = "person"
	KindAddress = "address"
)

// Metrics tracks record mutations, failed operations and unit of work
// latency. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	RecordsCreated     *prometheus.CounterVec
	RecordsUpdated     *prometheus.CounterVec
	RecordsDeleted     *prometheus.CounterVec
	OperationFailures  *prometheus.CounterVec
	UnitOfWorkDuration *prometheus.HistogramVec
}

// New registers every instrument on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_records_created_total",
			Help: "Total number of records created",
		}, []string{"kind"}),
		RecordsUpdated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_records_updated_total",
			Help: "Total number of records updated",
		}, []string{"kind"}),
		RecordsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_records_deleted_total",
			Help: "Total number of records deleted, cascaded addresses included",
		}, []string{"kind"}),
		OperationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_operation_failures_total",
			Help: "Total number of failed record operations",
		}, []string{"kind", "op", "reason"}),
		UnitOfWorkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_unit_of_work_duration_seconds",
			Help:    "Duration of store units of work by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementCreated(kind string) {
	if m == nil {
		return
	}
	m.RecordsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementUpdated(kind string) {
	if m == nil {
		return
	}
	m.RecordsUpdated.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddDeleted(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDeleted.WithLabelValues(kind).Add(float64(n))
}

// IncrementFailure records a failed operation. reason is a short error
// class such as "not_found" or "unavailable".
func (m *Metrics) IncrementFailure(kind, op, reason string) {
	if m == nil {
		return
	}
	m.OperationFailures.WithLabelValues(kind, op, reason).Inc()
}

// ObserveUnitOfWork satisfies db.Observer.
func (m *Metrics) ObserveUnitOfWork(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UnitOfWorkDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Handler exposes the gathered metrics in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
