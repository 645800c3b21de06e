package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestUploadMetricsExports(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewUploadMetrics(reg)

	metrics.ObserveDuration("item", 120*time.Millisecond)
	metrics.IncOutcome("item", "succeeded")
	metrics.IncOutcome("item", "failed")
	metrics.ObserveStoredBytes("item", 48*1024)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "photo_upload_outcomes_total", "outcome", "succeeded"); err != nil {
		t.Fatalf("fetch succeeded: %v", err)
	} else if got != 1 {
		t.Fatalf("expected succeeded=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "photo_upload_duration_seconds", "kind", "item"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestUploadMetricsBlankKindFallsBackToUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewUploadMetrics(reg)

	metrics.IncOutcome("", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "photo_upload_outcomes_total", "kind", "unknown")
	if err != nil {
		t.Fatalf("fetch unknown kind: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}
}

func TestUploadMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewUploadMetrics(nil)
	metrics.ObserveDuration("item", time.Second)
	metrics.IncOutcome("item", "rejected")
	metrics.ObserveStoredBytes("profile", 10)
}

func fetchCounterValue(families []*dto.MetricFamily, name, labelName, labelValue string) (float64, error) {
	metric, err := findLabeledMetric(families, name, labelName, labelValue)
	if err != nil {
		return 0, err
	}
	return metric.GetCounter().GetValue(), nil
}

func fetchHistogramSum(families []*dto.MetricFamily, name, labelName, labelValue string) (float64, error) {
	metric, err := findLabeledMetric(families, name, labelName, labelValue)
	if err != nil {
		return 0, err
	}
	return metric.GetHistogram().GetSampleSum(), nil
}

func findLabeledMetric(families []*dto.MetricFamily, name, labelName, labelValue string) (*dto.Metric, error) {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == labelName && label.GetValue() == labelValue {
					return metric, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("metric %s{%s=%q} not found", name, labelName, labelValue)
}
