// Package metrics implements the MetricsSink port (spec §6): Prometheus
// exposition-format counters and gauges for authorization decisions,
// errors and cache hits.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"hodei-authz/internal/authz"
)

// Collector collects and exposes Prometheus-compatible metrics.
type Collector struct {
	allowCount   int64
	denyCount    int64
	decisionNanos int64 // total nanoseconds spent in Evaluate across Allow/Deny decisions

	cacheHits   int64
	cacheMisses int64

	errorsByKind sync.Map // map[string]*int64

	startTime time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// RecordDecision implements authz.MetricsSink. kind is either "Allow",
// "Deny" or "cache_hit" — cache_hit decisions are left out of the
// allow/deny totals and the average duration since they bypassed evaluation
// entirely; hits are counted through RecordCacheHit.
func (c *Collector) RecordDecision(kind string, elapsed time.Duration) {
	switch kind {
	case "Allow":
		atomic.AddInt64(&c.allowCount, 1)
		atomic.AddInt64(&c.decisionNanos, elapsed.Nanoseconds())
	case "Deny":
		atomic.AddInt64(&c.denyCount, 1)
		atomic.AddInt64(&c.decisionNanos, elapsed.Nanoseconds())
	}
}

// RecordError implements authz.MetricsSink, incrementing a per-Kind counter.
func (c *Collector) RecordError(kind string) {
	counter, _ := c.errorsByKind.LoadOrStore(kind, new(int64))
	if ptr, ok := counter.(*int64); ok {
		atomic.AddInt64(ptr, 1)
	}
}

// RecordCacheHit implements authz.MetricsSink.
func (c *Collector) RecordCacheHit(hit bool) {
	if hit {
		atomic.AddInt64(&c.cacheHits, 1)
	} else {
		atomic.AddInt64(&c.cacheMisses, 1)
	}
}

// PrometheusFormat returns metrics in Prometheus exposition format.
func (c *Collector) PrometheusFormat() string {
	var output string

	allow := atomic.LoadInt64(&c.allowCount)
	deny := atomic.LoadInt64(&c.denyCount)
	output += c.formatCounter("hodei_authz_decisions_total", `decision="Allow"`, allow)
	output += c.formatCounter("hodei_authz_decisions_total", `decision="Deny"`, deny)
	if total := allow + deny; total > 0 {
		avgMs := float64(atomic.LoadInt64(&c.decisionNanos)) / float64(total) / float64(time.Millisecond)
		output += c.formatGauge("hodei_authz_decision_duration_avg_ms", "", avgMs)
	}

	output += c.formatCounter("hodei_authz_cache_hits_total", "", atomic.LoadInt64(&c.cacheHits))
	output += c.formatCounter("hodei_authz_cache_misses_total", "", atomic.LoadInt64(&c.cacheMisses))

	c.errorsByKind.Range(func(key, value interface{}) bool {
		kind := key.(string)
		if ptr, ok := value.(*int64); ok {
			output += c.formatCounter("hodei_authz_errors_total", fmt.Sprintf(`kind="%s"`, kind), atomic.LoadInt64(ptr))
		}
		return true
	})

	output += c.formatGauge("hodei_authz_uptime_seconds", "", time.Since(c.startTime).Seconds())

	return output
}

func (c *Collector) formatCounter(name, labels string, value int64) string {
	if labels != "" {
		return fmt.Sprintf("%s{%s} %d\n", name, labels, value)
	}
	return fmt.Sprintf("%s %d\n", name, value)
}

func (c *Collector) formatGauge(name, labels string, value float64) string {
	if labels != "" {
		return fmt.Sprintf("%s{%s} %.2f\n", name, labels, value)
	}
	return fmt.Sprintf("%s %.2f\n", name, value)
}

// Handler returns an HTTP handler exposing the collector's metrics. It is
// the only place in this package that touches net/http, and it is optional:
// cmd/authzd serves it at /metrics on the daemon's single HTTP listener,
// next to /healthz and the diagnostic /v1/evaluate route.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(c.PrometheusFormat()))
	}
}

var _ authz.MetricsSink = (*Collector)(nil)
