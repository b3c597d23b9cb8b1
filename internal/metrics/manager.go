package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sample results recorded in CounterSamples.
const (
	ResultProcessed  = "processed"
	ResultMissing    = "missing_joint"
	ResultLowConf    = "low_confidence"
	ResultDegenerate = "degenerate"
)

type Manager struct {
	// counters
	CounterSamples        *prometheus.CounterVec
	CounterReps           *prometheus.CounterVec
	CounterRepsSuppressed *prometheus.CounterVec
	CounterMessageErrors  prometheus.Counter

	// gauges
	GaugeConnections *prometheus.GaugeVec

	// histograms
	HistSampleDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("repcount", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repcount", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterSamples := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "samples_total",
		Help:      "The total number of pose samples, by exercise and result",
	}, []string{"exercise", "result"})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps_total",
		Help:      "The total number of counted repetitions",
	}, []string{"exercise"})
	counterRepsSuppressed := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps_suppressed_total",
		Help:      "Repetitions completed inside the cooldown and not counted",
	}, []string{"exercise"})
	counterMessageErrors := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "message_errors_total",
		Help:      "Malformed sample messages received over websocket",
	})

	gaugeConnections := factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "connections",
		Help:      "Currently open websocket connections",
	}, []string{"endpoint"})

	histSampleDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.000001, 0.0000025, 0.000005, 0.00001, 0.000025,
				0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.01, 0.1,
			},
			Name: "sample_duration_seconds",
			Help: "Time spent processing a single pose sample",
		},
	)

	return &Manager{
		CounterSamples:        counterSamples,
		CounterReps:           counterReps,
		CounterRepsSuppressed: counterRepsSuppressed,
		CounterMessageErrors:  counterMessageErrors,
		GaugeConnections:      gaugeConnections,
		HistSampleDuration:    histSampleDuration,
	}
}
