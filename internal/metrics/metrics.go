// Package metrics registers Prometheus counters for scan and rotation
// outcomes. Nothing in this package ever starts an HTTP listener; a
// caller that wants /metrics exposed wires prometheus.Handler into its
// own server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FindingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsentinel_findings_total",
		Help: "Findings emitted by scans, by rule name and severity.",
	}, []string{"rule", "severity"})

	FilesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsentinel_files_skipped_total",
		Help: "Files skipped during scans, by reason.",
	}, []string{"reason"})

	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "secretsentinel_scan_duration_seconds",
		Help: "Wall-clock duration of scan runs.",
	})

	RotationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "secretsentinel_rotations_total",
		Help: "Rotation outcomes, by rotator and final state.",
	}, []string{"rotator", "state"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secretsentinel_cache_hits_total",
		Help: "Scan cache hits across all runs in this process.",
	})

	PolicyFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secretsentinel_policy_failures_total",
		Help: "Policy gate evaluations that resulted in a failure.",
	})
)

// Registry holds every collector this package defines, for a caller
// that wants to register them with a custom prometheus.Registerer
// instead of the default global one.
func Registry() []prometheus.Collector {
	return []prometheus.Collector{
		FindingsTotal, FilesSkippedTotal, ScanDuration, RotationsTotal, CacheHitsTotal, PolicyFailuresTotal,
	}
}

// MustRegister registers every collector with prometheus's default
// registry. Safe to call once at process startup.
func MustRegister() {
	prometheus.MustRegister(Registry()...)
}
