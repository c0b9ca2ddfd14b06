package api

import (
	"math"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/clinicore/schedengine/pkg/logging"
)

// OpsSnapshot is a point-in-time summary of the engine's scheduling activity,
// assembled from the process metrics so dashboards need no Prometheus server.
type OpsSnapshot struct {
	Expansions  map[string]int64 `json:"expansions_by_frequency"`
	Conflicts   map[string]int64 `json:"conflicts_by_reason"`
	Mutations   map[string]int64 `json:"mutations_by_scope"`
	SlotQueries SlotLatencyStats `json:"slot_queries"`
}

// SlotLatencyStats summarizes the slot computation latency histogram.
type SlotLatencyStats struct {
	Total  int64   `json:"total"`
	Cached int64   `json:"cached"`
	P90Ms  float64 `json:"p90_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// StatsHandler serves the operational snapshot JSON.
type StatsHandler struct {
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewStatsHandler(gatherer prometheus.Gatherer, logger *logging.Logger) *StatsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{gatherer: gatherer, logger: logger}
}

// GetStats returns the current operational snapshot.
// GET /ops/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	mfs, err := h.gatherer.Gather()
	if err != nil {
		h.logger.Error("failed to gather metrics", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	snapshot := OpsSnapshot{
		Expansions: map[string]int64{},
		Conflicts:  map[string]int64{},
		Mutations:  map[string]int64{},
	}
	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case "schedengine_recurrence_expansions_total":
			sumCounterByLabel(mf, "frequency", snapshot.Expansions)
		case "schedengine_scheduling_conflicts_total":
			sumCounterByLabel(mf, "reason", snapshot.Conflicts)
		case "schedengine_series_mutations_total":
			sumCounterByLabel(mf, "scope", snapshot.Mutations)
		case "schedengine_scheduling_slot_query_latency_seconds":
			snapshot.SlotQueries = snapshotSlotLatency(mf)
		}
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func sumCounterByLabel(mf *dto.MetricFamily, label string, out map[string]int64) {
	for _, metric := range mf.Metric {
		if metric == nil || metric.GetCounter() == nil {
			continue
		}
		value := labelValue(metric, label)
		if value == "" {
			continue
		}
		out[value] += int64(metric.GetCounter().GetValue())
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func snapshotSlotLatency(mf *dto.MetricFamily) SlotLatencyStats {
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	var cachedCount uint64

	for _, metric := range mf.Metric {
		if metric == nil {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		if labelValue(metric, "cached") == "true" {
			cachedCount += h.GetSampleCount()
		}
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 {
		return SlotLatencyStats{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	return SlotLatencyStats{
		Total:  int64(sampleCount),
		Cached: int64(cachedCount),
		P90Ms:  histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms:  histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}

		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}

		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		return prevUpper + fraction*(upper-prevUpper)
	}

	return uppers[len(uppers)-1]
}
