// Package metrics holds the prometheus instruments for the avatar stage.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Frames counts completed clock iterations per backend.
	Frames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatarstage_frames_total",
			Help: "Animation clock iterations by backend",
		},
		[]string{"backend"},
	)

	// Loads counts model loads by the fallback stage that produced them.
	Loads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatarstage_model_loads_total",
			Help: "Model loads by stage (rich, static, primitive) and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// StaleLoads counts load results discarded because a newer request won.
	StaleLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "avatarstage_stale_loads_total",
			Help: "Model load results discarded by generation token",
		},
	)

	// BackendSwitches counts backend constructions by kind.
	BackendSwitches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatarstage_backend_switches_total",
			Help: "Backend constructions by kind",
		},
		[]string{"kind"},
	)

	// Commands counts control commands by op.
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatarstage_control_commands_total",
			Help: "Control commands received by op",
		},
		[]string{"op"},
	)

	// Diagnostics counts diagnostic records appended.
	Diagnostics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "avatarstage_diagnostics_total",
			Help: "Diagnostic records emitted",
		},
	)
)
