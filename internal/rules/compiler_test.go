package rules

import (
	"os"
	"testing"
)

func TestLoadBuiltins(t *testing.T) {
	InvalidateAll()
	rs := Load(Options{}, nil)
	if len(rs) == 0 {
		t.Fatal("expected built-in rules to load")
	}
	var sawAKIA bool
	for _, r := range rs {
		if r.Name == "AWS Access Key ID" {
			sawAKIA = true
			if r.Severity != SeverityHigh {
				t.Errorf("AWS Access Key ID severity = %s, want high", r.Severity)
			}
		}
	}
	if !sawAKIA {
		t.Error("expected AWS Access Key ID built-in rule")
	}
}

func TestLoadDisableBuiltins(t *testing.T) {
	InvalidateAll()
	rs := Load(Options{DisableBuiltins: true}, nil)
	if len(rs) != 0 {
		t.Errorf("expected empty rule set, got %d rules", len(rs))
	}
}

func TestLoadCurated(t *testing.T) {
	InvalidateAll()
	rs := Load(Options{DisableBuiltins: true, Rulesets: []string{"common"}}, nil)
	if len(rs) == 0 {
		t.Fatal("expected curated rules to load")
	}
}

func TestLoadUnknownCuratedSkipped(t *testing.T) {
	InvalidateAll()
	rs := Load(Options{DisableBuiltins: true, Rulesets: []string{"does-not-exist"}}, nil)
	if len(rs) != 0 {
		t.Errorf("expected no rules from unknown ruleset, got %d", len(rs))
	}
}

func TestLoadInvalidRegexDropped(t *testing.T) {
	InvalidateAll()
	dir := t.TempDir()
	writeFile(t, dir+"/bad.yaml", "patterns:\n  - name: Bad\n    regex: \"(unterminated\"\n  - name: Good\n    regex: \"ok\"\n")
	rs := Load(Options{DisableBuiltins: true, RulesetDirs: []string{dir}}, nil)
	if len(rs) != 1 || rs[0].Name != "Good" {
		t.Errorf("expected only the valid rule to survive, got %+v", rs)
	}
}

func TestCacheMemoizesByKey(t *testing.T) {
	InvalidateAll()
	a := Load(Options{DisableBuiltins: true, Rulesets: []string{"common"}}, nil)
	b := Load(Options{DisableBuiltins: true, Rulesets: []string{"common"}}, nil)
	if len(a) == 0 {
		t.Fatal("expected rules to load")
	}
	if &a[0] != &b[0] {
		t.Error("expected second Load with the same key to return the cached slice")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
