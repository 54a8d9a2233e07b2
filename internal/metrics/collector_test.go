package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsSteps(t *testing.T) {
	c := NewCollector("test")

	c.OnStep(0, 0, nil, time.Millisecond)
	c.OnStep(1, 60, nil, 2*time.Millisecond)

	if got := testutil.ToFloat64(c.steps); got != 2 {
		t.Errorf("steps = %v", got)
	}
	if got := testutil.ToFloat64(c.simulatedTime); got != 60 {
		t.Errorf("simulated time = %v", got)
	}
	if got := testutil.CollectAndCount(c.stepDuration); got != 1 {
		t.Errorf("histogram series = %d", got)
	}
}

func TestCollectorRecordsRuns(t *testing.T) {
	c := NewCollector("")

	c.RecordRun(500, nil)
	c.RecordRun(20, errors.New("diverged"))
	c.RecordRun(100, nil)

	if got := testutil.ToFloat64(c.runs.WithLabelValues("success")); got != 2 {
		t.Errorf("successes = %v", got)
	}
	if got := testutil.ToFloat64(c.runs.WithLabelValues("failure")); got != 1 {
		t.Errorf("failures = %v", got)
	}
	if got := testutil.ToFloat64(c.evaluations); got != 620 {
		t.Errorf("evaluations = %v", got)
	}
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("test")
	c.OnStep(0, 42, nil, time.Microsecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "test_propagation_simulated_time_seconds 42") {
		t.Errorf("metrics output missing simulated time:\n%s", body)
	}
}
