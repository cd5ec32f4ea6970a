// Package metrics provides observability for the toy workshop server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "toys"

// Collector gathers engine, websocket and persistence metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	// Tick metrics
	ticks       prometheus.Counter
	tickLatency prometheus.Histogram

	// Round metrics
	phaseTransitions *prometheus.CounterVec
	toysBuilt        prometheus.Counter
	toyScores        prometheus.Histogram
	gameOvers        prometheus.Counter
	toysPerSession   prometheus.Histogram
	reviewSatisfied  prometheus.Gauge
	commands         *prometheus.CounterVec

	// WebSocket metrics
	wsConnections prometheus.Gauge
	wsMessages    *prometheus.CounterVec
	wsErrors      prometheus.Counter

	// Event metrics
	persistErrors prometheus.Counter
}

// NewCollector creates a collector with every metric registered, plus the
// Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total tick cycles",
		}),
		tickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Time spent draining commands and advancing the engine",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		phaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "phase_transitions_total",
			Help:      "Phase transitions by source and target phase",
		}, []string{"from", "to"}),
		toysBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "toys_built_total",
			Help:      "Toys completed before the building countdown ran out",
		}),
		toyScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "toy_score",
			Help:      "Score of each finished toy against its request",
			Buckets:   prometheus.LinearBuckets(-5, 1, 11),
		}),
		gameOvers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "game_overs_total",
			Help:      "Sessions that ended with an incomplete toy",
		}),
		toysPerSession: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "toys_per_session",
			Help:      "Toys built in a session before game over",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		reviewSatisfied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "last_review_satisfied_ratio",
			Help:      "Share of satisfied kids in the last finished review",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Inbound commands by name and result",
		}, []string{"command", "result"}),

		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Active WebSocket connections",
		}),
		wsMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_total",
			Help:      "Total WebSocket messages",
		}, []string{"direction"}),
		wsErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "errors_total",
			Help:      "WebSocket read, write and decode errors",
		}),

		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "persist_errors_total",
			Help:      "Event write-through failures",
		}),
	}

	c.registry.MustRegister(
		c.ticks, c.tickLatency,
		c.phaseTransitions, c.toysBuilt, c.toyScores, c.gameOvers, c.toysPerSession, c.reviewSatisfied, c.commands,
		c.wsConnections, c.wsMessages, c.wsErrors,
		c.persistErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveTick records a tick cycle completion.
func (c *Collector) ObserveTick(latency time.Duration) {
	c.ticks.Inc()
	c.tickLatency.Observe(latency.Seconds())
}

func (c *Collector) ObservePhase(from, to string) {
	c.phaseTransitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) ObserveToyBuilt(score int) {
	c.toysBuilt.Inc()
	c.toyScores.Observe(float64(score))
}

func (c *Collector) ObserveGameOver(toys int) {
	c.gameOvers.Inc()
	c.toysPerSession.Observe(float64(toys))
}

// ObserveReview keeps the satisfied share of the last review; an empty review reads 0.
func (c *Collector) ObserveReview(satisfied, total int) {
	if total == 0 {
		c.reviewSatisfied.Set(0)
		return
	}
	c.reviewSatisfied.Set(float64(satisfied) / float64(total))
}

func (c *Collector) ObserveCommand(name string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	c.commands.WithLabelValues(name, result).Inc()
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int) {
	c.wsConnections.Add(float64(delta))
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		c.wsMessages.WithLabelValues("in").Inc()
	} else {
		c.wsMessages.WithLabelValues("out").Inc()
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	c.wsErrors.Inc()
}

// RecordPersistError records a failed event write-through.
func (c *Collector) RecordPersistError() {
	c.persistErrors.Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
