package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFindingsTotalIncrementsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_findings_total"}, []string{"rule", "severity"})
	reg.MustRegister(c)

	c.WithLabelValues("AWS Access Key ID", "high").Inc()
	c.WithLabelValues("AWS Access Key ID", "high").Inc()

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var found *dto.MetricFamily
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_findings_total" {
			found = mf
		}
	}
	if found == nil {
		t.Fatal("metric family not found")
	}
	if got := found.Metric[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("counter value = %v, want 2", got)
	}
}

func TestRegistryListsAllCollectors(t *testing.T) {
	if len(Registry()) != 6 {
		t.Errorf("Registry() returned %d collectors, want 6", len(Registry()))
	}
}
