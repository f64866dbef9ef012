package rules

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	secretsentinelrules "github.com/oktsec/secretsentinel/rules"
	"gopkg.in/yaml.v3"
)

// Engine selects the regex implementation used to compile patterns.
type Engine string

const (
	EngineNative Engine = "native"
	EngineRE2    Engine = "re2"
)

// Options controls rule loading for a single compiled set.
type Options struct {
	BaseDir         string
	DisableBuiltins bool
	Rulesets        []string // curated names, e.g. "common", "cloud"
	RulesetDirs     []string // extra directories of user YAML/JSON rule files
	Engine          Engine
}

// cacheKey mirrors the process-wide memoization key from spec.md §4.A:
// (engine, base_dir, disable_flag, ruleset_list, ruleset_dirs).
func (o Options) cacheKey() string {
	rs := append([]string(nil), o.Rulesets...)
	sort.Strings(rs)
	dirs := append([]string(nil), o.RulesetDirs...)
	sort.Strings(dirs)
	eng := o.Engine
	if eng == "" {
		eng = EngineNative
	}
	return fmt.Sprintf("%s|%s|%v|%s|%s", eng, o.BaseDir, o.DisableBuiltins, strings.Join(rs, ","), strings.Join(dirs, ","))
}

var (
	cacheMu sync.Mutex
	cache   = map[string][]*Rule{}
)

// Load compiles the built-ins (unless disabled), the selected curated
// rulesets, and any user patterns found in base_dir's project config,
// returning an ordered slice of compiled rules. The result is
// memoized process-wide by Options' cache key; callers must never
// mutate the returned slice or the *Rule values within it.
func Load(opts Options, logger *slog.Logger) []*Rule {
	if logger == nil {
		logger = slog.Default()
	}
	key := opts.cacheKey()

	cacheMu.Lock()
	if cached, ok := cache[key]; ok {
		cacheMu.Unlock()
		return cached
	}
	cacheMu.Unlock()

	var raws []rawRule
	if !opts.DisableBuiltins {
		raws = append(raws, builtins...)
	}
	for _, name := range opts.Rulesets {
		rs, err := loadCurated(name)
		if err != nil {
			logger.Warn("skipping curated ruleset", "name", name, "error", err)
			continue
		}
		raws = append(raws, rs...)
	}
	for _, dir := range opts.RulesetDirs {
		rs, err := loadDir(dir)
		if err != nil {
			logger.Warn("skipping ruleset directory", "dir", dir, "error", err)
			continue
		}
		raws = append(raws, rs...)
	}
	if opts.BaseDir != "" {
		rs, err := loadProjectConfig(opts.BaseDir)
		if err != nil {
			logger.Warn("skipping project config rules", "dir", opts.BaseDir, "error", err)
		} else {
			raws = append(raws, rs...)
		}
	}

	compiled := make([]*Rule, 0, len(raws))
	for _, raw := range raws {
		if !raw.enabled() {
			continue
		}
		re, err := compile(raw.Regex, opts.Engine)
		if err != nil {
			logger.Warn("dropping rule with invalid regex", "name", raw.Name, "error", err)
			continue
		}
		compiled = append(compiled, &Rule{
			Name:     raw.Name,
			Pattern:  raw.Regex,
			Severity: raw.severity(),
			Enabled:  true,
			Regex:    re,
		})
	}

	cacheMu.Lock()
	cache[key] = compiled
	cacheMu.Unlock()
	return compiled
}

// InvalidateAll clears the process-wide compiled-rule cache. Intended
// for tests and for long-running processes that reload rule files.
func InvalidateAll() {
	cacheMu.Lock()
	cache = map[string][]*Rule{}
	cacheMu.Unlock()
}

// compile builds a regex with the requested engine, falling back to
// the native engine on re2 compile failure per spec.md §4.A.
func compile(pattern string, engine Engine) (Matcher, error) {
	if engine == EngineRE2 {
		if re, err := compileRE2(pattern); err == nil {
			return re, nil
		}
	}
	return regexp.Compile(pattern)
}

func loadCurated(name string) ([]rawRule, error) {
	if !curatedNames[name] {
		return nil, fmt.Errorf("unknown curated ruleset %q", name)
	}
	data, err := secretsentinelrules.FS().ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, err
	}
	var doc struct {
		Patterns []rawRule `yaml:"patterns"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing curated ruleset %q: %w", name, err)
	}
	return doc.Patterns, nil
}

func loadDir(dir string) ([]rawRule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []rawRule
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		rs, err := parsePatternFile(filepath.Join(dir, e.Name()), ext)
		if err != nil {
			continue
		}
		out = append(out, rs...)
	}
	return out, nil
}

// loadProjectConfig reads .secretsentinel.yaml / .secretsentinel.json
// from baseDir for the `patterns` section, per spec.md §6.
func loadProjectConfig(baseDir string) ([]rawRule, error) {
	for _, name := range []string{".secretsentinel.yaml", ".secretsentinel.yml", ".secretsentinel.json"} {
		path := filepath.Join(baseDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		ext := strings.ToLower(filepath.Ext(path))
		return parsePatternFile(path, ext)
	}
	return nil, nil
}

func parsePatternFile(path, ext string) ([]rawRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Patterns []rawRule `yaml:"patterns" json:"patterns"`
	}
	if ext == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.Patterns, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Patterns, nil
}
