package prom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatterCount(t *testing.T) {
	s := NewStatter("datasync")
	s.Count("mirror.uploaded", 2, 1)
	s.Count("mirror.uploaded", 3, 1)
	s.Count("mirror.uploaded", -1, 1)
	s.Count("mirror.skipped", 1, 1)

	if got := testutil.ToFloat64(s.counters["mirror_uploaded"]); got != 5 {
		t.Fatalf("mirror.uploaded: got %v, exp 5", got)
	}
	if got := testutil.ToFloat64(s.counters["mirror_skipped"]); got != 1 {
		t.Fatalf("mirror.skipped: got %v, exp 1", got)
	}
	if n := testutil.CollectAndCount(s.Registry()); n != 2 {
		t.Fatalf("expected 2 registered metrics, got %d", n)
	}
}

func TestStatterGaugeTiming(t *testing.T) {
	s := NewStatter("datasync")
	s.Gauge("analytics.q1_mean", 10, 1)
	s.Gauge("analytics.q1_mean", 12.5, 1)
	s.Timing("mirror.run", 1500*time.Millisecond, 1)
	s.Histogram("population.bytes", 1024, 1)

	if got := testutil.ToFloat64(s.gauges["analytics_q1_mean"]); got != 12.5 {
		t.Fatalf("gauge: got %v, exp 12.5", got)
	}
	if _, ok := s.histograms["mirror_run_seconds"]; !ok {
		t.Fatal("expected mirror_run_seconds histogram")
	}
	if _, ok := s.histograms["population_bytes"]; !ok {
		t.Fatal("expected population_bytes histogram")
	}
}

func TestStatterPush(t *testing.T) {
	var method, path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := NewStatter("datasync")
	s.Count("population.uploaded", 1, 1)
	if err := s.Push(context.Background(), ts.URL, "population"); err != nil {
		t.Fatalf("pushing: %v", err)
	}
	if method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", method)
	}
	if path != "/metrics/job/population" {
		t.Fatalf("unexpected push path: %s", path)
	}
}

func TestMetricName(t *testing.T) {
	if got := metricName("mirror.files-failed"); got != "mirror_files_failed" {
		t.Fatalf("got %s", got)
	}
}
