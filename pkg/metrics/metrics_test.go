package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	rec := New()

	rec.RecordFetch("sina", "ok")
	rec.RecordFetch("sina", "ok")
	rec.RecordFetch("sina", "error")

	if got := testutil.ToFloat64(rec.fetchTotal.WithLabelValues("sina", "ok")); got != 2 {
		t.Errorf("Expected 2 ok fetches, got %v", got)
	}
	if got := testutil.ToFloat64(rec.fetchTotal.WithLabelValues("sina", "error")); got != 1 {
		t.Errorf("Expected 1 error fetch, got %v", got)
	}
}

func TestRecordEvent(t *testing.T) {
	rec := New()

	rec.RecordEvent("premium_alert")
	rec.RecordEvent("fund_flow")
	rec.RecordEvent("fund_flow")

	if got := testutil.ToFloat64(rec.eventsCreated.WithLabelValues("fund_flow")); got != 2 {
		t.Errorf("Expected 2 fund_flow events, got %v", got)
	}
}

func TestRecordPrediction(t *testing.T) {
	rec := New()

	rec.RecordPrediction("csi300")

	if got := testutil.ToFloat64(rec.predictionsTotal.WithLabelValues("csi300")); got != 1 {
		t.Errorf("Expected 1 prediction, got %v", got)
	}
}

func TestSetSchedulerRunning(t *testing.T) {
	rec := New()

	rec.SetSchedulerRunning(true)
	if got := testutil.ToFloat64(rec.schedulerRunning); got != 1 {
		t.Errorf("Expected gauge=1, got %v", got)
	}

	rec.SetSchedulerRunning(false)
	if got := testutil.ToFloat64(rec.schedulerRunning); got != 0 {
		t.Errorf("Expected gauge=0, got %v", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	rec := New()
	rec.RecordFetch("yahoo", "ok")
	rec.ObserveJobDuration("update_indices", 0.42)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "pulse_fetch_total") {
		t.Error("Expected pulse_fetch_total in scrape output")
	}
	if !strings.Contains(body, "pulse_job_duration_seconds") {
		t.Error("Expected pulse_job_duration_seconds in scrape output")
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	// Each recorder has its own registry, so two instances never
	// collide on metric registration.
	a := New()
	b := New()

	a.RecordFetch("sina", "ok")

	if got := testutil.ToFloat64(b.fetchTotal.WithLabelValues("sina", "ok")); got != 0 {
		t.Errorf("Expected independent registries, got %v", got)
	}
}
