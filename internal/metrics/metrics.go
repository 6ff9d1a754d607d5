// Package metrics exposes Prometheus counters and histograms for one
// orchestrator run: files parsed, resolution failures, BFS queue depth,
// and cache hit rate. Grounded on the atomic counters of
// original_source/src/profiler.rs, translated into real collectors since
// the host already carries a metrics library for this purpose.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry wraps the collectors for one process. Callers that don't need
// a /metrics endpoint can still read the counters directly for the
// structured report.
type Registry struct {
	FilesParsed        prometheus.Counter
	ParseFailures       prometheus.Counter
	ResolutionFailures prometheus.Counter
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	BFSQueueDepth      prometheus.Histogram
	RunDuration        prometheus.Histogram
}

// New creates a Registry and registers its collectors on reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		FilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "affected",
			Name:      "files_parsed_total",
			Help:      "Total source files parsed across all runs.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "affected",
			Name:      "parse_failures_total",
			Help:      "Total files that failed to parse.",
		}),
		ResolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "affected",
			Name:      "resolution_failures_total",
			Help:      "Total import specifiers that did not resolve.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "affected",
			Name:      "cache_hits_total",
			Help:      "Total parse-cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "affected",
			Name:      "cache_misses_total",
			Help:      "Total parse-cache misses.",
		}),
		BFSQueueDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "affected",
			Name:      "bfs_queue_depth",
			Help:      "Observed worklist length during the reference closure BFS.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "affected",
			Name:      "run_duration_seconds",
			Help:      "End-to-end orchestrator run duration.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		r.FilesParsed, r.ParseFailures, r.ResolutionFailures,
		r.CacheHits, r.CacheMisses, r.BFSQueueDepth, r.RunDuration,
	)
	return r
}
