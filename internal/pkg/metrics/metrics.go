package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// StoreOnline is 1 while reports are served from MongoDB, 0 in fallback mode.
	StoreOnline = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "citycare",
		Subsystem: "store",
		Name:      "online",
		Help:      "Whether the durable report store is currently reachable.",
	})

	// FallbackReports is the number of reports held only in process memory.
	FallbackReports = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "citycare",
		Subsystem: "store",
		Name:      "fallback_reports",
		Help:      "Number of reports held in the in-process fallback store.",
	})

	// SubmissionsTotal counts accepted submissions by the mode that stored them.
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citycare",
		Subsystem: "reports",
		Name:      "submissions_total",
		Help:      "Total number of reports accepted, labeled by store mode.",
	}, []string{"mode"})

	// FallbacksTotal counts durable operations redirected to the fallback store.
	FallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citycare",
		Subsystem: "store",
		Name:      "fallbacks_total",
		Help:      "Total number of operations that fell back after a connectivity error, labeled by operation.",
	}, []string{"op"})

	// ImageCleanupErrorsTotal counts failed best-effort image deletions.
	ImageCleanupErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "citycare",
		Subsystem: "images",
		Name:      "cleanup_errors_total",
		Help:      "Total number of image deletions that failed after a report was removed.",
	})

	// InferenceRequestsTotal counts analysis requests by outcome (live or mock).
	InferenceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citycare",
		Subsystem: "analysis",
		Name:      "requests_total",
		Help:      "Total number of photo analyses, labeled by result source.",
	}, []string{"source"})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			StoreOnline,
			FallbackReports,
			SubmissionsTotal,
			FallbacksTotal,
			ImageCleanupErrorsTotal,
			InferenceRequestsTotal,
		)
	})
}

// SetStoreOnline mirrors the connection state into the gauge.
func SetStoreOnline(online bool) {
	if online {
		StoreOnline.Set(1)
		return
	}
	StoreOnline.Set(0)
}
