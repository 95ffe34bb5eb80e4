// Package metrics wires pkg/engine's lifecycle hooks to Prometheus
// collectors, grounded on the teacher's structured-logging example's
// LifecycleHooks-to-CounterVec/HistogramVec wiring.
package metrics

import (
	"time"

	"github.com/aretw0/stategraph/pkg/engine"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles the graph-engine metrics and the Hooks that populate
// them.
type Collectors struct {
	NodeVisits    *prometheus.CounterVec
	NodeDuration  *prometheus.HistogramVec
	NodeErrors    *prometheus.CounterVec
	Checkpoints   *prometheus.CounterVec
	Interrupts    *prometheus.CounterVec
}

// New builds and registers the collectors against reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stategraph_node_visits_total",
			Help: "Total number of node dispatches.",
		}, []string{"node_id"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "stategraph_node_duration_seconds",
			Help: "Duration of node dispatch.",
		}, []string{"node_id"}),
		NodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stategraph_node_errors_total",
			Help: "Total number of node dispatch failures.",
		}, []string{"node_id"}),
		Checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stategraph_checkpoints_total",
			Help: "Total number of checkpoints written, by outcome.",
		}, []string{"outcome"}),
		Interrupts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stategraph_interrupts_total",
			Help: "Total number of interrupt pauses, by node.",
		}, []string{"node_id"}),
	}
	reg.MustRegister(c.NodeVisits, c.NodeDuration, c.NodeErrors, c.Checkpoints, c.Interrupts)
	return c
}

// Hooks builds an engine.Hooks value that records to c.
func (c *Collectors) Hooks() engine.Hooks {
	return engine.Hooks{
		OnNodeEnter: func(ev engine.NodeEvent) {
			c.NodeVisits.WithLabelValues(ev.NodeID).Inc()
		},
		OnNodeLeave: func(ev engine.NodeEvent, d time.Duration, err error) {
			c.NodeDuration.WithLabelValues(ev.NodeID).Observe(d.Seconds())
			if err != nil {
				c.NodeErrors.WithLabelValues(ev.NodeID).Inc()
			}
		},
		OnCheckpoint: func(threadID string, snap engine.Snapshot, err error) {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			c.Checkpoints.WithLabelValues(outcome).Inc()
		},
		OnInterrupt: func(threadID, nodeID string) {
			c.Interrupts.WithLabelValues(nodeID).Inc()
		},
	}
}
