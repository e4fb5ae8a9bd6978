package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSubmissionNormalizesLabels(t *testing.T) {
	before := testutil.ToFloat64(submissionsTotal.WithLabelValues("failed"))
	ObserveSubmission(" Failed ", 2*time.Second)

	if got := testutil.ToFloat64(submissionsTotal.WithLabelValues("failed")); got != before+1 {
		t.Fatalf("failed submissions = %v, want %v", got, before+1)
	}
}

func TestIncResultStoreOpSplitsSuccess(t *testing.T) {
	IncResultStoreOp("put", "memory", true)
	IncResultStoreOp("put", "memory", false)

	if got := testutil.ToFloat64(resultStoreOpsTotal.WithLabelValues("put", "memory", "true")); got < 1 {
		t.Fatalf("successful puts = %v, want >= 1", got)
	}
	if got := testutil.ToFloat64(resultStoreOpsTotal.WithLabelValues("put", "memory", "false")); got < 1 {
		t.Fatalf("failed puts = %v, want >= 1", got)
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}
