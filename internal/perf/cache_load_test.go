package perf

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/openaudit/openaudit-visualizer/internal/observability"
	"github.com/openaudit/openaudit-visualizer/internal/query"
)

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	metrics := observability.NewMetrics()
	cache := query.NewCache(query.WithRecorder(metrics))
	key := query.NewKey("analytics/stats", nil)

	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		<-release
		return "stats", nil
	}

	const callers = 200
	var wg sync.WaitGroup
	results := make(chan query.Result, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			results <- cache.Fetch(context.Background(), key, fetch)
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for lookups(t, metrics) < callers && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	wg.Wait()
	close(results)

	for res := range results {
		if res.Status != query.StatusSuccess {
			t.Fatalf("unexpected status %s", res.Status)
		}
	}

	families := gather(t, metrics)
	requests := metricValue(t, families, "openaudit_query_requests_total", map[string]string{"resource": "analytics/stats"})
	if requests != callers {
		t.Fatalf("expected %d lookups, got %f", callers, requests)
	}
	fetches := metricValue(t, families, "openaudit_query_fetches_total", map[string]string{"resource": "analytics/stats", "status": "success"})
	if fetches != 1 {
		t.Fatalf("expected a single upstream fetch, got %f", fetches)
	}
	if mean := histogramMean(t, families, "openaudit_query_fetch_duration_seconds", map[string]string{"resource": "analytics/stats"}); mean > 2.0 {
		t.Fatalf("fetch duration above budget: %f", mean)
	}
}

func gather(t *testing.T, metrics *observability.Metrics) []*dto.MetricFamily {
	t.Helper()
	gatherer, ok := metrics.Registerer().(prometheus.Gatherer)
	if !ok {
		t.Fatal("metrics registry cannot be gathered")
	}
	families, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	return families
}

func lookups(t *testing.T, metrics *observability.Metrics) float64 {
	t.Helper()
	for _, fam := range gather(t, metrics) {
		if fam.GetName() != "openaudit_query_requests_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
