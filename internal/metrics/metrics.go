// Package metrics exposes Prometheus collectors for the service supervisor.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "easycue",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful service starts.",
		},
	)
	serviceStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "easycue",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of requested service stops that terminated the process.",
		},
	)
	spawnFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "easycue",
			Subsystem: "service",
			Name:      "spawn_failures_total",
			Help:      "Number of failed attempts to launch the service process.",
		},
	)
	terminateFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "easycue",
			Subsystem: "service",
			Name:      "terminate_failures_total",
			Help:      "Number of stop requests where the process could not be confirmed dead.",
		},
	)
	unexpectedExits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "easycue",
			Subsystem: "service",
			Name:      "unexpected_exits_total",
			Help:      "Number of times the service process exited without a stop request.",
		},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easycue",
			Subsystem: "service",
			Name:      "state_transitions_total",
			Help:      "Number of transitions between service states.",
		}, []string{"from", "to"},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "easycue",
			Subsystem: "service",
			Name:      "current_state",
			Help:      "Current service state (1 = active state, 0 = inactive).",
		}, []string{"state"},
	)
)

// States lists every state label used by current_state.
var States = []string{"stopped", "starting", "running", "stopping", "error"}

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{serviceStarts, serviceStops, spawnFailures, terminateFailures, unexpectedExits, stateTransitions, currentState}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	SetCurrentState("stopped")
	return nil
}

// Handler returns an http.Handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// The helpers below no-op until Register has been called.

func IncStart() {
	if regOK.Load() {
		serviceStarts.Inc()
	}
}

func IncStop() {
	if regOK.Load() {
		serviceStops.Inc()
	}
}

func IncSpawnFailure() {
	if regOK.Load() {
		spawnFailures.Inc()
	}
}

func IncTerminateFailure() {
	if regOK.Load() {
		terminateFailures.Inc()
	}
}

func IncUnexpectedExit() {
	if regOK.Load() {
		unexpectedExits.Inc()
	}
}

// RecordStateTransition counts a transition and updates current_state.
func RecordStateTransition(from, to string) {
	if !regOK.Load() {
		return
	}
	stateTransitions.WithLabelValues(from, to).Inc()
	SetCurrentState(to)
}

// SetCurrentState marks state as the only active state.
func SetCurrentState(state string) {
	if !regOK.Load() {
		return
	}
	for _, s := range States {
		var value float64
		if s == state {
			value = 1
		}
		currentState.WithLabelValues(s).Set(value)
	}
}
