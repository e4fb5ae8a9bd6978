package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(fileSelectionsTotal, submissionsTotal, submissionSeconds, stagesEnteredTotal, predictionsTotal, resultStoreOpsTotal)
}

var (
	fileSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_selections_total",
			Help: "Dataset file selections by outcome (accepted/invalid_type/too_large).",
		},
		[]string{"outcome"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_submissions_total",
			Help: "Training submissions by outcome (succeeded/failed/superseded).",
		},
		[]string{"outcome"},
	)

	submissionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_submission_seconds",
			Help:    "Wall time of one training round trip.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 300},
		},
		[]string{"outcome"},
	)

	stagesEnteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulated_stages_entered_total",
			Help: "Simulated progress stages entered, by stage id.",
		},
		[]string{"stage"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Single-email predictions by outcome (ham/spam/rejected/failed).",
		},
		[]string{"outcome"},
	)

	resultStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_store_operations_total",
			Help: "Result slot operations by op, backend and success.",
		},
		[]string{"op", "backend", "success"},
	)
)

// IncFileSelection counts one dataset selection attempt.
func IncFileSelection(outcome string) {
	fileSelectionsTotal.WithLabelValues(norm(outcome)).Inc()
}

// ObserveSubmission records the outcome and latency of a training round trip.
func ObserveSubmission(outcome string, elapsed time.Duration) {
	submissionsTotal.WithLabelValues(norm(outcome)).Inc()
	submissionSeconds.WithLabelValues(norm(outcome)).Observe(elapsed.Seconds())
}

// IncStageEntered counts one simulated stage activation.
func IncStageEntered(stageID string) {
	stagesEnteredTotal.WithLabelValues(norm(stageID)).Inc()
}

// IncPrediction counts one prediction request by outcome.
func IncPrediction(outcome string) {
	predictionsTotal.WithLabelValues(norm(outcome)).Inc()
}

// IncResultStoreOp counts one result slot operation.
func IncResultStoreOp(op, backend string, success bool) {
	ok := "false"
	if success {
		ok = "true"
	}
	resultStoreOpsTotal.WithLabelValues(norm(op), norm(backend), ok).Inc()
}
