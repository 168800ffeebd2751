package diagnosis

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DiagnosisStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_steps_total",
			Help: "Count of diagnosis steps by step and outcome.",
		},
		[]string{"step", "outcome"},
	)

	DiagnosisEventFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "diagnosis_event_failures_total",
			Help: "Count of diagnosis events the sink failed to store.",
		},
	)
)

func init() {
	prometheus.MustRegister(DiagnosisStepsTotal, DiagnosisEventFailuresTotal)
}
