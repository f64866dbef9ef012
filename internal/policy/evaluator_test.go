package policy

import (
	"testing"

	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/finding"
)

func intp(n int) *int { return &n }

func TestEvaluateNoPolicyAllowsAll(t *testing.T) {
	e := NewEvaluator(&config.Config{}, Overrides{}, nil)
	d := e.Evaluate([]finding.Finding{{Severity: finding.High}})
	if !d.Allowed {
		t.Errorf("expected allowed with no policy configured, got %q", d.Reason)
	}
}

func TestEvaluateForbidRules(t *testing.T) {
	cfg := &config.Config{Policy: &config.Policy{ForbidRules: []string{"AWS Access Key ID"}}}
	e := NewEvaluator(cfg, Overrides{}, nil)
	d := e.Evaluate([]finding.Finding{{RuleName: "AWS Access Key ID", Severity: finding.High}})
	if d.Allowed {
		t.Error("expected forbid_rules match to fail the policy")
	}
}

func TestEvaluateHighThreshold(t *testing.T) {
	cfg := &config.Config{Policy: &config.Policy{Thresholds: &config.Thresholds{High: intp(0)}}}
	e := NewEvaluator(cfg, Overrides{}, nil)
	d := e.Evaluate([]finding.Finding{{Severity: finding.High}})
	if d.Allowed {
		t.Error("expected high threshold of 0 to fail on one high finding")
	}
}

func TestEvaluateMinSeverityFilter(t *testing.T) {
	cfg := &config.Config{Policy: &config.Policy{MinSeverity: "high", Thresholds: &config.Thresholds{Total: intp(0)}}}
	e := NewEvaluator(cfg, Overrides{}, nil)
	d := e.Evaluate([]finding.Finding{{Severity: finding.Low}, {Severity: finding.Medium}})
	if !d.Allowed {
		t.Errorf("low/medium findings should be filtered out by min_severity=high, got %q", d.Reason)
	}
	if len(d.Considered) != 0 {
		t.Errorf("considered = %d, want 0", len(d.Considered))
	}
}

func TestEvaluateCLIOverridesProjectPolicy(t *testing.T) {
	cfg := &config.Config{Policy: &config.Policy{Thresholds: &config.Thresholds{Total: intp(100)}}}
	e := NewEvaluator(cfg, Overrides{Thresholds: &config.Thresholds{Total: intp(0)}}, nil)
	d := e.Evaluate([]finding.Finding{{Severity: finding.Low}})
	if d.Allowed {
		t.Error("CLI override threshold should take precedence over project policy")
	}
}

func TestEvaluateInvalidMinSeverityOverrideIgnored(t *testing.T) {
	cfg := &config.Config{Policy: &config.Policy{MinSeverity: "low"}}
	e := NewEvaluator(cfg, Overrides{MinSeverity: "critical"}, nil)
	d := e.Evaluate([]finding.Finding{{Severity: finding.Low}})
	if len(d.Considered) != 1 {
		t.Errorf("invalid override should be ignored, expected project min_severity to still apply")
	}
}

func TestEvaluateTotalThreshold(t *testing.T) {
	cfg := &config.Config{Policy: &config.Policy{Thresholds: &config.Thresholds{Total: intp(1)}}}
	e := NewEvaluator(cfg, Overrides{}, nil)
	d := e.Evaluate([]finding.Finding{{Severity: finding.Low}, {Severity: finding.Low}})
	if d.Allowed {
		t.Error("expected total threshold of 1 to fail on two findings")
	}
}
