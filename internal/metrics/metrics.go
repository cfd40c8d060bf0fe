// Package metrics exposes the companion's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anchor"

// Collector holds all Prometheus metrics for the service. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Replies             *prometheus.CounterVec
	Turns               *prometheus.CounterVec
	Exports             *prometheus.CounterVec
	BackupPatchFailures prometheus.Counter
	ModelLatency        prometheus.Histogram
}

// New creates a collector on its own registry, so tests can build as many as they like.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Replies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replies_total",
				Help:      "Companion replies by source (model or fallback)",
			},
			[]string{"source"},
		),
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Stored conversation turns by sender and mood",
			},
			[]string{"sender", "mood"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Memory exports by format",
			},
			[]string{"format"},
		),
		BackupPatchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backup_patch_failures_total",
				Help:      "Failed backedUpAt updates after an export",
			},
		),
		ModelLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_latency_seconds",
				Help:      "Language model call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		c.Replies,
		c.Turns,
		c.Exports,
		c.BackupPatchFailures,
		c.ModelLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveReply(source string) {
	if c == nil {
		return
	}
	c.Replies.WithLabelValues(source).Inc()
}

func (c *Collector) ObserveTurn(sender, mood string) {
	if c == nil {
		return
	}
	c.Turns.WithLabelValues(sender, mood).Inc()
}

func (c *Collector) ObserveExport(format string) {
	if c == nil {
		return
	}
	c.Exports.WithLabelValues(format).Inc()
}

func (c *Collector) ObservePatchFailure() {
	if c == nil {
		return
	}
	c.BackupPatchFailures.Inc()
}

func (c *Collector) ObserveModelLatency(d time.Duration) {
	if c == nil {
		return
	}
	c.ModelLatency.Observe(d.Seconds())
}
