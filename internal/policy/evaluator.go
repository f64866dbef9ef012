// Package policy implements the scan pass/fail gate: severity
// filtering, forbidden-rule checks, and per-severity/total thresholds,
// per spec.md §4.K.
package policy

import (
	"fmt"
	"log/slog"

	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/finding"
	"github.com/oktsec/secretsentinel/internal/metrics"
)

// Decision is the outcome of evaluating a finding set against a policy.
type Decision struct {
	Allowed bool
	Reason  string
	// Considered is the finding set after the min_severity filter, the
	// set every threshold check runs against.
	Considered []finding.Finding
}

// Overrides carries CLI flag values that take precedence over the
// project policy's corresponding fields when set.
type Overrides struct {
	MinSeverity string
	Thresholds  *config.Thresholds
	ForbidRules []string
}

// Evaluator applies a project policy (optionally overridden by CLI
// flags) to a finding set.
type Evaluator struct {
	policy config.Policy
	logger *slog.Logger
}

// NewEvaluator builds an Evaluator from the project config's policy
// section (nil is treated as an empty, always-passing policy) merged
// with CLI overrides.
func NewEvaluator(cfg *config.Config, ov Overrides, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	var p config.Policy
	if cfg != nil && cfg.Policy != nil {
		p = *cfg.Policy
	}
	if ov.MinSeverity != "" {
		if finding.Severity(ov.MinSeverity).Valid() {
			p.MinSeverity = ov.MinSeverity
		} else {
			logger.Warn("ignoring invalid min_severity override", "value", ov.MinSeverity)
		}
	}
	if ov.Thresholds != nil {
		p.Thresholds = ov.Thresholds
	}
	if len(ov.ForbidRules) > 0 {
		p.ForbidRules = ov.ForbidRules
	}
	return &Evaluator{policy: p, logger: logger}
}

// Evaluate applies the policy to findings per spec.md §4.K steps 1-5.
func (e *Evaluator) Evaluate(findings []finding.Finding) Decision {
	decision := e.evaluate(findings)
	if !decision.Allowed {
		metrics.PolicyFailuresTotal.Inc()
	}
	return decision
}

func (e *Evaluator) evaluate(findings []finding.Finding) Decision {
	min := finding.Severity(e.policy.MinSeverity)
	considered := findings
	if min.Valid() {
		considered = make([]finding.Finding, 0, len(findings))
		for _, f := range findings {
			if f.Severity.Rank() >= min.Rank() {
				considered = append(considered, f)
			}
		}
	}

	for _, name := range e.policy.ForbidRules {
		for _, f := range considered {
			if f.RuleName == name {
				return Decision{
					Allowed:    false,
					Reason:     fmt.Sprintf("finding matched forbidden rule %q", name),
					Considered: considered,
				}
			}
		}
	}

	if e.policy.Thresholds != nil {
		counts := map[finding.Severity]int{}
		for _, f := range considered {
			counts[f.Severity]++
		}
		th := e.policy.Thresholds
		if th.High != nil && counts[finding.High] > *th.High {
			return e.fail(considered, "high", counts[finding.High], *th.High)
		}
		if th.Medium != nil && counts[finding.Medium] > *th.Medium {
			return e.fail(considered, "medium", counts[finding.Medium], *th.Medium)
		}
		if th.Low != nil && counts[finding.Low] > *th.Low {
			return e.fail(considered, "low", counts[finding.Low], *th.Low)
		}
		if th.Total != nil && len(considered) > *th.Total {
			return Decision{
				Allowed:    false,
				Reason:     fmt.Sprintf("total findings %d exceed threshold %d", len(considered), *th.Total),
				Considered: considered,
			}
		}
	}

	return Decision{Allowed: true, Reason: "within policy", Considered: considered}
}

func (e *Evaluator) fail(considered []finding.Finding, level string, count, threshold int) Decision {
	return Decision{
		Allowed:    false,
		Reason:     fmt.Sprintf("%s-severity findings %d exceed threshold %d", level, count, threshold),
		Considered: considered,
	}
}
