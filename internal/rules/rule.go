// Package rules compiles the built-in, curated, and user-supplied
// credential patterns into an ordered, process-lifetime-cacheable
// ruleset.
package rules

import "github.com/oktsec/secretsentinel/internal/finding"

// Matcher is the subset of *regexp.Regexp that detectors need. Both
// the native engine (stdlib regexp) and the re2 engine
// (github.com/wasilibs/go-re2) implement it, since go-re2 mirrors the
// stdlib regexp API as a drop-in replacement.
type Matcher interface {
	FindAllStringIndex(s string, n int) [][]int
}

// Severity is an alias of finding.Severity so a compiled Rule's
// severity flows straight into the Finding it produces.
type Severity = finding.Severity

const (
	SeverityLow    = finding.Low
	SeverityMedium = finding.Medium
	SeverityHigh   = finding.High
)

// Rule is a single compiled credential pattern. Name and Severity are
// opaque to the engine; it never interprets them beyond propagating
// them onto matches.
type Rule struct {
	Name     string
	Pattern  string
	Severity Severity
	Enabled  bool

	Regex Matcher
}

// rawRule is the source-of-truth shape for built-in and user rules
// before compilation.
type rawRule struct {
	Name     string   `yaml:"name" json:"name"`
	Regex    string   `yaml:"regex" json:"regex"`
	Severity Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
	Enabled  *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

func (r rawRule) enabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

func (r rawRule) severity() Severity {
	if r.Severity.Valid() {
		return r.Severity
	}
	return SeverityMedium
}
