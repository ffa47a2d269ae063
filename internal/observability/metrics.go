package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trainfuel"

var (
	importsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "files_total",
		Help:      "Workout import files processed, by outcome.",
	}, []string{"outcome"})
	importRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Workout rows parsed, by validity.",
	}, []string{"status"})
	importBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "bytes_total",
		Help:      "Raw bytes read from uploaded workout files.",
	})
	importDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Time spent parsing and storing one workout file.",
		Buckets:   prometheus.DefBuckets,
	})
	importsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "active",
		Help:      "Imports currently holding a limiter slot.",
	})
	plansCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "nutrition",
		Name:      "plans_created_total",
		Help:      "Nutrition plans derived and stored.",
	})
	planDays = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "nutrition",
		Name:      "plan_days_total",
		Help:      "Derived nutrition target days, by day type.",
	}, []string{"day_type"})
	scheduleItems = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "items_total",
		Help:      "Conflict resolution candidates, by result.",
	}, []string{"result"})
	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events handed to the broker, by type and outcome.",
	}, []string{"type", "outcome"})
)

func init() {
	prometheus.MustRegister(
		importsTotal,
		importRows,
		importBytes,
		importDuration,
		importsActive,
		plansCreated,
		planDays,
		scheduleItems,
		eventsPublished,
	)
}

// RecordImport records one finished import attempt. outcome is "ok",
// "rejected", "busy" or "error".
func RecordImport(outcome string, validRows, invalidRows int, bytes int64, elapsed time.Duration) {
	importsTotal.WithLabelValues(outcome).Inc()
	if validRows > 0 {
		importRows.WithLabelValues("valid").Add(float64(validRows))
	}
	if invalidRows > 0 {
		importRows.WithLabelValues("invalid").Add(float64(invalidRows))
	}
	if bytes > 0 {
		importBytes.Add(float64(bytes))
	}
	importDuration.Observe(elapsed.Seconds())
}

// SetActiveImports updates the limiter occupancy gauge.
func SetActiveImports(n int) {
	importsActive.Set(float64(n))
}

// RecordPlanCreated counts a stored plan and its day types.
func RecordPlanCreated(dayTypes map[string]int) {
	plansCreated.Inc()
	for dt, n := range dayTypes {
		planDays.WithLabelValues(dt).Add(float64(n))
	}
}

// RecordScheduleResolution counts the outcome of each resolver candidate.
func RecordScheduleResolution(applied, noFit, refused, failed int) {
	add := func(result string, n int) {
		if n > 0 {
			scheduleItems.WithLabelValues(result).Add(float64(n))
		}
	}
	add("applied", applied)
	add("no_fit", noFit)
	add("refused", refused)
	add("failed", failed)
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsPublished.WithLabelValues(eventType, outcome).Inc()
}
