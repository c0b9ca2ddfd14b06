package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for scheduling flows.
type SchedulingMetrics struct {
	expansionsTotal *prometheus.CounterVec
	conflictsTotal  *prometheus.CounterVec
	mutationsTotal  *prometheus.CounterVec
	slotLatency     *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		expansionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedengine",
			Subsystem: "recurrence",
			Name:      "expansions_total",
			Help:      "Total recurrence rule expansions",
		}, []string{"frequency", "status"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedengine",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Total scheduling attempts rejected as conflicting",
		}, []string{"reason"}),
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedengine",
			Subsystem: "series",
			Name:      "mutations_total",
			Help:      "Total series mutations by requested scope",
		}, []string{"scope", "status"}),
		slotLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schedengine",
			Subsystem: "scheduling",
			Name:      "slot_query_latency_seconds",
			Help:      "Latency of availability slot computation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cached"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.expansionsTotal, m.conflictsTotal, m.mutationsTotal, m.slotLatency)
	return m
}

func (m *SchedulingMetrics) ObserveExpansion(frequency, status string) {
	if m == nil {
		return
	}
	m.expansionsTotal.WithLabelValues(frequency, status).Inc()
}

func (m *SchedulingMetrics) ObserveConflict(reason string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(reason).Inc()
}

func (m *SchedulingMetrics) ObserveMutation(scope, status string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(scope, status).Inc()
}

func (m *SchedulingMetrics) ObserveSlotLatency(cached bool, seconds float64) {
	if m == nil {
		return
	}
	label := "false"
	if cached {
		label = "true"
	}
	m.slotLatency.WithLabelValues(label).Observe(seconds)
}
