package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the scheduling counters. A nil *Metrics is a valid
// no-op receiver so callers never guard their instrumentation sites.
type Metrics struct {
	batches          prometheus.Counter
	scheduled        prometheus.Counter
	unscheduled      *prometheus.CounterVec
	cancellations    prometheus.Counter
	optimizationTime prometheus.Histogram
	lastScore        prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "batches_total",
			Help:      "Optimization batches run.",
		}),
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "appointments_scheduled_total",
			Help:      "Appointments created by the optimizer.",
		}),
		unscheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "procedures_unscheduled_total",
			Help:      "Procedures left unscheduled, by reason.",
		}, []string{"reason"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "cancellations_total",
			Help:      "Appointments cancelled.",
		}),
		optimizationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one optimization batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "last_batch_score",
			Help:      "Optimization score of the most recent batch.",
		}),
	}
	reg.MustRegister(
		m.batches, m.scheduled, m.unscheduled,
		m.cancellations, m.optimizationTime, m.lastScore,
	)
	return m
}

func (m *Metrics) BatchCompleted(scheduled int, seconds, score float64) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.scheduled.Add(float64(scheduled))
	m.optimizationTime.Observe(seconds)
	m.lastScore.Set(score)
}

func (m *Metrics) ProcedureUnscheduled(reason string) {
	if m == nil {
		return
	}
	m.unscheduled.WithLabelValues(reason).Inc()
}

func (m *Metrics) AppointmentCancelled() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}
