// Package metrics records engine activity on a private Prometheus registry.
// The CLI is short-lived, so the registry is flushed to a node-exporter
// textfile instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Recorder owns a registry and the collectors registered on it.
// All methods are safe to call on a nil *Recorder.
type Recorder struct {
	registry *prometheus.Registry

	storeQueries  *prometheus.CounterVec
	checkins      *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		storeQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_store_queries_total",
				Help: "Store calls issued by the engine",
			},
			[]string{"op"},
		),
		checkins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_checkins_total",
				Help: "Check-in mutations by action",
			},
			[]string{"action"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_cache_requests_total",
				Help: "Monthly stats cache lookups by result",
			},
			[]string{"result"},
		),
		scanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_scan_duration_seconds",
				Help:    "Duration of streak and period scans",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"kind"},
		),
	}
}

// Registry exposes the underlying registry, e.g. for testutil.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) StoreQuery(op string) {
	if r == nil {
		return
	}
	r.storeQueries.WithLabelValues(op).Inc()
}

func (r *Recorder) Checkin(action string) {
	if r == nil {
		return
	}
	r.checkins.WithLabelValues(action).Inc()
}

func (r *Recorder) CacheRequest(result string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

// ObserveScan records the time elapsed since start under kind.
func (r *Recorder) ObserveScan(kind string, start time.Time) {
	if r == nil {
		return
	}
	r.scanDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the text exposition format, atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
