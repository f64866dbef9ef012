// Package detect implements the per-file-type detectors of spec.md
// §4.E: text, env, dockerfile, binary (opt-in), zip, and tar.gz. All
// detectors share the line-processing contract in this file: rule
// matching, entropy scanning, and the ML hook line entry point run in
// that order over every line, with heuristic detectors layering their
// own per-line checks on top.
package detect

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/oktsec/secretsentinel/internal/entropy"
	"github.com/oktsec/secretsentinel/internal/finding"
	"github.com/oktsec/secretsentinel/internal/mlhook"
	"github.com/oktsec/secretsentinel/internal/rules"
)

// SkipReason names why part of a file's content was not scanned.
type SkipReason string

const (
	SkipTooLarge             SkipReason = "too-large"
	SkipTruncated            SkipReason = "truncated"
	SkipLineTooLong          SkipReason = "line-too-long"
	SkipUnreadable           SkipReason = "unreadable"
	SkipBinaryRejected       SkipReason = "binary-rejected"
	SkipArchiveEntryTooLarge SkipReason = "archive-entry-too-large"
	SkipArchiveBudget        SkipReason = "archive-budget-exceeded"
)

// ArchiveBudget bounds archive walking per spec.md §4.E: a per-entry
// cap, a per-archive total cap, a max entry count, and a process-run
// shared counter with its own ceiling.
type ArchiveBudget struct {
	MaxEntryBytes int64
	MaxTotalBytes int64
	MaxEntries    int
	GlobalCap     int64
	Global        *int64 // shared atomic counter across one scan run; never decremented
}

// Options configures a detector invocation. The zero value disables
// every optional feature (entropy, ML hook, binary, size caps).
type Options struct {
	Rules          []*rules.Rule
	EntropyEnabled bool
	Entropy        entropy.Options
	Hook           *mlhook.Bridge

	MaxFileBytes  int64 // 0 = no cap
	MaxLineBytes  int   // 0 = no cap
	MaxTotalBytes int64 // 0 = no cap

	HashMode bool

	EnableBinary   bool
	BinaryMaxBytes int64

	Archive ArchiveBudget
}

// Result is what a detector produces for one file.
type Result struct {
	Findings     []finding.Finding
	Hash         string // hex SHA-256, set only when Options.HashMode
	SkipCounts   map[SkipReason]int
	SkippedWhole bool // the file was not read at all (e.g. too-large, unreadable)
}

func newResult() Result {
	return Result{SkipCounts: map[SkipReason]int{}}
}

func (r *Result) skip(reason SkipReason) {
	r.SkipCounts[reason]++
}

// matchRules iterates every compiled rule over line, pushing one
// finding per non-overlapping match in first-encounter, left-to-right
// order, rules applied in their loaded order.
func matchRules(filePath string, lineNum int, line string, rs []*rules.Rule) []finding.Finding {
	var out []finding.Finding
	for _, r := range rs {
		for _, loc := range r.Regex.FindAllStringIndex(line, -1) {
			start, end := loc[0], loc[1]
			out = append(out, finding.Finding{
				FilePath: filePath,
				Line:     lineNum,
				Column:   start + 1,
				Match:    line[start:end],
				Context:  finding.TrimContext(line),
				RuleName: r.Name,
				Severity: r.Severity,
			})
		}
	}
	return out
}

// matchEntropy runs the high-entropy heuristic over line.
func matchEntropy(filePath string, lineNum int, line string, opts entropy.Options) []finding.Finding {
	var out []finding.Finding
	for _, c := range entropy.Scan(line, opts) {
		out = append(out, finding.Finding{
			FilePath: filePath,
			Line:     lineNum,
			Column:   c.Column,
			Match:    c.Token,
			Context:  finding.TrimContext(line),
			RuleName: "High-Entropy Token",
			Severity: finding.Medium,
		})
	}
	return out
}

// matchHookLine invokes the ML hook's line entry point, normalizing
// its response into Findings per spec.md §4.C.
func matchHookLine(ctx context.Context, filePath string, lineNum int, line string, b *mlhook.Bridge) []finding.Finding {
	toks := b.AnalyzeLine(ctx, line, filePath, lineNum)
	return tokensToFindings(filePath, lineNum, line, toks)
}

func tokensToFindings(filePath string, lineNum int, line string, toks []mlhook.Token) []finding.Finding {
	out := make([]finding.Finding, 0, len(toks))
	for _, t := range toks {
		ruleName := t.RuleName
		if ruleName == "" {
			ruleName = "ML-Hook"
		}
		var span *finding.Span
		if t.Span != nil {
			span = &finding.Span{Start: t.Span.Start, Length: t.Span.Length}
		}
		out = append(out, finding.Finding{
			FilePath:   filePath,
			Line:       lineNum,
			Column:     t.Column(),
			Match:      t.Token,
			Context:    finding.TrimContext(line),
			RuleName:   ruleName,
			Severity:   finding.Severity(t.NormalizedSeverity()),
			Confidence: t.Confidence,
			Tags:       t.Tags,
			Message:    t.Message,
			Span:       span,
		})
	}
	return out
}

// lineHeuristic lets env/dockerfile detectors add domain checks on
// top of the shared rule/entropy/hook pass.
type lineHeuristic func(lineNum int, line string) []finding.Finding

// scanLines reads r line-by-line (CRLF-aware), applying the shared
// rule/entropy/line-hook contract plus an optional heuristic, subject
// to the per-line and per-run byte caps. It returns the accumulated
// findings, a hasher fed the exact bytes consumed when hashMode is
// set, and whether the read was cut short by MaxTotalBytes.
func scanLines(ctx context.Context, r *bufio.Reader, filePath string, opts Options, heur lineHeuristic) ([]finding.Finding, *Result) {
	res := newResult()
	var findings []finding.Finding
	var hasher hash.Hash
	if opts.HashMode {
		hasher = sha256.New()
	}

	var totalBytes int64
	lineNum := 0
	for {
		raw, err := r.ReadString('\n')
		if len(raw) == 0 && err != nil {
			break
		}
		lineNum++
		line := strings.TrimRight(raw, "\r\n")
		totalBytes += int64(len(raw))

		if opts.MaxLineBytes > 0 && len(line) > opts.MaxLineBytes {
			res.skip(SkipLineTooLong)
			if hasher != nil {
				hasher.Write([]byte(raw))
			}
			if err != nil {
				break
			}
			if opts.MaxTotalBytes > 0 && totalBytes > opts.MaxTotalBytes {
				res.skip(SkipTruncated)
				break
			}
			continue
		}

		if hasher != nil {
			hasher.Write([]byte(line))
			hasher.Write([]byte("\n"))
		}

		findings = append(findings, matchRules(filePath, lineNum, line, opts.Rules)...)
		if opts.EntropyEnabled {
			findings = append(findings, matchEntropy(filePath, lineNum, line, opts.Entropy)...)
		}
		if opts.Hook != nil {
			mode := opts.Hook.Mode()
			if mode == mlhook.ModeLine || mode == mlhook.ModeBoth {
				findings = append(findings, matchHookLine(ctx, filePath, lineNum, line, opts.Hook)...)
			}
		}
		if heur != nil {
			findings = append(findings, heur(lineNum, line)...)
		}

		if opts.MaxTotalBytes > 0 && totalBytes > opts.MaxTotalBytes {
			res.skip(SkipTruncated)
			break
		}
		if err != nil {
			break
		}
	}

	if hasher != nil {
		res.Hash = hex.EncodeToString(hasher.Sum(nil))
	}
	return findings, &res
}

// fileModeHook re-reads the full line set once more for the ML hook's
// file entry point, per spec.md §4.E's final step.
func fileModeHook(ctx context.Context, filePath string, lines []string, b *mlhook.Bridge) []finding.Finding {
	if b == nil {
		return nil
	}
	mode := b.Mode()
	if mode != mlhook.ModeFile && mode != mlhook.ModeBoth {
		return nil
	}
	toks := b.AnalyzeFile(ctx, lines, filePath)
	return tokensToFindings(filePath, 0, "", toks)
}
