// Package metrics exposes the Prometheus instruments for the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	commandsTotal      *prometheus.CounterVec
	commandDuration    *prometheus.HistogramVec
	automationDuration *prometheus.HistogramVec
	sessionsStarted    prometheus.Counter
)

// Init registers the service metrics with the given registerer. It must be
// called once at startup before any observation; observations made earlier
// are dropped.
func Init(namespace string, reg prometheus.Registerer) {
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Number of commands processed, by classified intent.",
	}, []string{"intent"})

	commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_seconds",
		Help:      "End to end command handling latency, by classified intent.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"intent"})

	automationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "automation_task_duration_seconds",
		Help:      "Browser automation task latency, by outcome.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"outcome"})

	// Sessions live for the process lifetime, so a counter of starts is
	// the honest instrument here.
	sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Number of browser sessions started since the process began.",
	})

	reg.MustRegister(commandsTotal, commandDuration, automationDuration, sessionsStarted)
}

// ObserveCommand records one processed command.
func ObserveCommand(intent string, d time.Duration) {
	if commandsTotal == nil {
		return
	}
	commandsTotal.WithLabelValues(intent).Inc()
	commandDuration.WithLabelValues(intent).Observe(d.Seconds())
}

// ObserveAutomation records one automation task run.
func ObserveAutomation(outcome string, d time.Duration) {
	if automationDuration == nil {
		return
	}
	automationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SessionStarted records one newly started browser session.
func SessionStarted() {
	if sessionsStarted != nil {
		sessionsStarted.Inc()
	}
}
