// Package scan implements the scan orchestrator of spec.md §4.F: file
// discovery, ignore resolution, optional git-incremental narrowing, a
// bounded worker pool dispatching to the detectors in internal/detect,
// and cache consult/update.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oktsec/secretsentinel/internal/cache"
	"github.com/oktsec/secretsentinel/internal/detect"
	"github.com/oktsec/secretsentinel/internal/finding"
	"github.com/oktsec/secretsentinel/internal/ignore"
	"github.com/oktsec/secretsentinel/internal/metrics"
)

const defaultConcurrency = 8

// Options configures one orchestrator run.
type Options struct {
	Concurrency int
	CachePath   string
	// CacheDriver selects the Store CachePath is opened with: "json"
	// (the default) or "sqlite", for trees large enough that rewriting
	// one JSON document per run becomes expensive.
	CacheDriver    string
	Incremental    bool
	GitBase        string
	IgnorePatterns []string
	Detect         detect.Options
}

// Result is the outcome of one scan run.
type Result struct {
	Findings   []finding.Finding
	SkipCounts map[detect.SkipReason]int
	FilesSeen  int
	CacheHits  int
}

// Run scans target (a file or a directory tree) per spec.md §4.F.
// Finding order across files is non-deterministic; callers that need
// a stable order must sort.
func Run(ctx context.Context, target string, opts Options) (Result, error) {
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Detect.Archive.Global == nil {
		var g int64
		opts.Detect.Archive.Global = &g
	}

	info, err := os.Stat(target)
	if err != nil {
		return Result{}, err
	}

	if !info.IsDir() {
		res := scanOne(ctx, target, opts.Detect)
		recordMetrics(Result{Findings: res.Findings, SkipCounts: res.SkipCounts, FilesSeen: 1})
		return Result{Findings: res.Findings, SkipCounts: res.SkipCounts, FilesSeen: 1}, nil
	}

	matcher, err := ignore.New(target, opts.IgnorePatterns)
	if err != nil {
		return Result{}, err
	}
	candidates, err := walk(target, matcher)
	if err != nil {
		return Result{}, err
	}

	if opts.Incremental {
		if changed, ok := gitChangedFiles(target, opts.GitBase); ok {
			candidates = intersectGitChanges(target, candidates, changed)
		}
	}

	var c cache.Store
	if opts.CachePath != "" {
		c, err = cache.Open(opts.CachePath, opts.CacheDriver)
		if err != nil {
			return Result{}, err
		}
		defer c.Close()
	}

	result := runWorkers(ctx, target, candidates, opts, c)

	if c != nil {
		if !opts.Incremental {
			c.Prune()
		}
		if err := c.Save(opts.CachePath); err != nil {
			return result, err
		}
	}

	sort.Slice(result.Findings, func(i, j int) bool {
		a, b := result.Findings[i], result.Findings[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Match < b.Match
	})

	recordMetrics(result)
	return result, nil
}

// recordMetrics reports one scan run's outcome to the package-level
// Prometheus collectors; nothing is exposed over HTTP here, per
// internal/metrics's own doc comment.
func recordMetrics(result Result) {
	for _, f := range result.Findings {
		metrics.FindingsTotal.WithLabelValues(f.RuleName, string(f.Severity)).Inc()
	}
	for reason, count := range result.SkipCounts {
		metrics.FilesSkippedTotal.WithLabelValues(string(reason)).Add(float64(count))
	}
	if result.CacheHits > 0 {
		metrics.CacheHitsTotal.Add(float64(result.CacheHits))
	}
}

func intersectGitChanges(root string, candidates []string, changed map[string]bool) []string {
	var out []string
	for _, c := range candidates {
		rel, err := filepath.Rel(root, c)
		if err != nil {
			rel = c
		}
		if changed[filepath.ToSlash(rel)] {
			out = append(out, c)
		}
	}
	return out
}

func runWorkers(ctx context.Context, root string, candidates []string, opts Options, c cache.Store) Result {
	var (
		next       int64 = -1
		mu         sync.Mutex
		findings   []finding.Finding
		skipCounts = map[detect.SkipReason]int{}
		cacheHits  int64
	)

	var wg sync.WaitGroup
	n := opts.Concurrency
	if n > len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		n = 1
	}

	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				i := atomic.AddInt64(&next, 1)
				if int(i) >= len(candidates) {
					return
				}
				path := candidates[i]
				rel, err := filepath.Rel(root, path)
				if err != nil {
					rel = path
				}
				rel = filepath.ToSlash(rel)

				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				mtimeMs := info.ModTime().UnixMilli()
				size := info.Size()

				if c != nil {
					if entry, ok := c.Get(rel); ok {
						hashMode := opts.Detect.HashMode
						if !hashMode && entry.MtimeMs == mtimeMs && entry.Size == size {
							mu.Lock()
							findings = append(findings, entry.Findings...)
							mu.Unlock()
							atomic.AddInt64(&cacheHits, 1)
							continue
						}
					}
				}

				res := scanOne(ctx, path, opts.Detect)

				mu.Lock()
				findings = append(findings, res.Findings...)
				for k, v := range res.SkipCounts {
					skipCounts[k] += v
				}
				mu.Unlock()

				if c != nil {
					c.Put(rel, cache.Entry{
						MtimeMs:  mtimeMs,
						Size:     size,
						Findings: res.Findings,
						Hash:     res.Hash,
					})
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Findings:   findings,
		SkipCounts: skipCounts,
		FilesSeen:  len(candidates),
		CacheHits:  int(cacheHits),
	}
}

// scanOne dispatches path to the detector its Classify'd kind selects.
func scanOne(ctx context.Context, path string, opts detect.Options) detect.Result {
	switch Classify(path) {
	case KindDockerfile:
		res, _ := detect.Dockerfile(ctx, path, opts)
		return res
	case KindEnv:
		res, _ := detect.Env(ctx, path, opts)
		return res
	case KindZip:
		res, _ := detect.Zip(ctx, path, opts)
		return res
	case KindTarGz:
		res, _ := detect.TarGz(ctx, path, opts)
		return res
	case KindBinary:
		res, _ := detect.Binary(ctx, path, opts)
		return res
	default:
		res, _ := detect.Text(ctx, path, opts)
		return res
	}
}
