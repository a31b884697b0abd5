package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestJobMetricsSplitsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewJobMetrics(reg)
	metrics.ObserveJob("order-expiry", 20*time.Millisecond, nil)
	metrics.ObserveJob("order-expiry", 5*time.Millisecond, errors.New("boom"))
	metrics.ObserveJob("", time.Millisecond, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	runs := findMetricFamily(mfs, "shop_maintenance_job_runs_total")
	if runs == nil {
		t.Fatal("runs counter missing")
	}
	var failed, unknown float64
	for _, metric := range runs.GetMetric() {
		if matchesLabel(metric.GetLabel(), "outcome", OutcomeFailed) {
			failed += metric.GetCounter().GetValue()
		}
		if matchesLabel(metric.GetLabel(), "job", "unknown") {
			unknown += metric.GetCounter().GetValue()
		}
	}
	if failed != 1 || unknown != 1 {
		t.Fatalf("expected failed=1 unknown=1, got failed=%f unknown=%f", failed, unknown)
	}

	if got, err := fetchHistogramSum(mfs, "shop_maintenance_job_duration_seconds", "job", "order-expiry"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	var nilMetrics *JobMetrics
	nilMetrics.ObserveJob("noop", time.Second, nil)
}
