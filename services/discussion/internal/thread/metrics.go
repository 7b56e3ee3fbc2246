package thread

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cascadeStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discussion_cascade_steps_total",
		Help: "Committed cascade delete steps by outcome.",
	}, []string{"outcome"})

	cascadeLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "discussion_cascade_length",
		Help:    "Number of nodes touched by one comment delete.",
		Buckets: prometheus.LinearBuckets(1, 1, 8),
	})
)

func observeStep(s Step) {
	cascadeStepsTotal.WithLabelValues(string(s.Outcome)).Inc()
}

func observeCascade(steps []Step) {
	if len(steps) > 0 {
		cascadeLength.Observe(float64(len(steps)))
	}
}
