package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	jm := NewJobMetrics(reg)

	jm.ObserveDuration("photo_sweeper", 250*time.Millisecond)
	jm.IncSuccess("photo_sweeper")
	jm.IncFailure("photo_sweeper")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if got := counterValue(t, families, "job_success", "photo_sweeper"); got != 1 {
		t.Fatalf("job_success = %f, want 1", got)
	}
	if got := counterValue(t, families, "job_failure", "photo_sweeper"); got != 1 {
		t.Fatalf("job_failure = %f, want 1", got)
	}
	if got := histogramSum(t, families, "job_duration_seconds", "photo_sweeper"); got <= 0 {
		t.Fatalf("job_duration_seconds sum = %f, want > 0", got)
	}
}

func TestJobMetricsNilRegistererIsNoop(t *testing.T) {
	jm := NewJobMetrics(nil)
	jm.ObserveDuration("photo_sweeper", time.Second)
	jm.IncSuccess("photo_sweeper")
	jm.IncFailure("")
}

func counterValue(t *testing.T, families []*dto.MetricFamily, name, job string) float64 {
	t.Helper()
	metric := findJobMetric(families, name, job)
	if metric == nil {
		t.Fatalf("metric %s{job=%q} not found", name, job)
	}
	return metric.GetCounter().GetValue()
}

func histogramSum(t *testing.T, families []*dto.MetricFamily, name, job string) float64 {
	t.Helper()
	metric := findJobMetric(families, name, job)
	if metric == nil {
		t.Fatalf("metric %s{job=%q} not found", name, job)
	}
	return metric.GetHistogram().GetSampleSum()
}

func findJobMetric(families []*dto.MetricFamily, name, job string) *dto.Metric {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric
				}
			}
		}
	}
	return nil
}
