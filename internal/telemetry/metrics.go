// Package telemetry exposes clone progress as Prometheus metrics and wires
// OpenTelemetry tracing for `pigram sync`.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/pigram/internal/clone"
)

const namespace = "pigram"

// Metrics holds the clone collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	messages         *prometheus.CounterVec
	runs             *prometheus.CounterVec
	throttleSeconds  *prometheus.CounterVec
	cooldowns        *prometheus.CounterVec
	checkpointErrors *prometheus.CounterVec
	lastMessageID    *prometheus.GaugeVec
	lastRun          *prometheus.GaugeVec
	running          *prometheus.GaugeVec
}

// NewMetrics creates and registers the clone collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Source messages processed, by outcome.",
		}, []string{"job", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished clone runs, by terminal state.",
		}, []string{"job", "state"}),
		throttleSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttle_wait_seconds_total",
			Help:      "Seconds spent waiting on server flood waits.",
		}, []string{"job"}),
		cooldowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldowns_total",
			Help:      "Proactive cooldown pauses taken.",
		}, []string{"job"}),
		checkpointErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_errors_total",
			Help:      "Checkpoint writes that failed.",
		}, []string{"job"}),
		lastMessageID: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_message_id",
			Help:      "Last source message id processed.",
		}, []string{"job"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}, []string{"job"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running",
			Help:      "1 while a run for the job is in progress.",
		}, []string{"job"}),
	}
	m.registry.MustRegister(
		m.messages,
		m.runs,
		m.throttleSeconds,
		m.cooldowns,
		m.checkpointErrors,
		m.lastMessageID,
		m.lastRun,
		m.running,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observer returns a clone observer recording events under the job label.
func (m *Metrics) Observer(job string) clone.Observer {
	return func(ev clone.ProgressEvent) {
		switch ev.Kind {
		case clone.EventMessage:
			m.messages.WithLabelValues(job, ev.Outcome.String()).Inc()
			m.lastMessageID.WithLabelValues(job).Set(float64(ev.LastMessageID))
		case clone.EventThrottle:
			m.throttleSeconds.WithLabelValues(job).Add(ev.Wait.Seconds())
		case clone.EventCooldown:
			m.cooldowns.WithLabelValues(job).Inc()
		case clone.EventCheckpointError:
			m.checkpointErrors.WithLabelValues(job).Inc()
		}

		if ev.Final {
			m.running.WithLabelValues(job).Set(0)
			m.runs.WithLabelValues(job, ev.State.String()).Inc()
			m.lastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
			return
		}
		m.running.WithLabelValues(job).Set(1)
	}
}
