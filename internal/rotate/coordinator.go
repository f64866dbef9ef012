package rotate

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oktsec/secretsentinel/internal/finding"
	"github.com/oktsec/secretsentinel/internal/metrics"
	"github.com/oktsec/secretsentinel/internal/redact"
	"github.com/oktsec/secretsentinel/internal/safefile"
)

const defaultRotateConcurrency = 4

// State names the position of one finding in the per-finding state
// machine of spec.md §4.I.
type State string

const (
	StatePending      State = "pending"
	StateApproved     State = "approved"
	StateSkipped      State = "skipped"
	StateFileUpdated  State = "file_updated"
	StateFailed       State = "failed"
	StateRollbackDone State = "rollback_done"
)

// Options configures one rotation run.
type Options struct {
	DryRun      bool
	Force       bool
	Interactive bool
	Template    string
	Verify      bool
	Concurrency int

	// Confirm is used for interactive approval; defaults to Confirm
	// (a terminal prompt). InteractiveAuto, if non-empty ("y"/"n"),
	// bypasses Confirm entirely — the env-override path of spec.md
	// §4.I step 3.
	Confirm         ConfirmFunc
	InteractiveAuto string

	Now func() time.Time

	// OnEvent, if set, is called once per finding after its outcome is
	// known, letting a caller record an audit event without this
	// package depending on internal/audit.
	OnEvent func(f finding.Finding, state State, ref string, message string)
}

// FindingOutcome is one finding's result within a rotation run.
type FindingOutcome struct {
	Finding finding.Finding
	State   State
	Ref     string
	Message string
}

// FileOutcome is the result of rotating every finding in one file.
type FileOutcome struct {
	FilePath   string
	Findings   []FindingOutcome
	BackupPath string
	Err        error
}

// Result is the outcome of one coordinator run.
type Result struct {
	Files         []FileOutcome
	Refused       bool
	RefusalReason string
}

// Run groups findings by file, rotates each file's group through
// rotator under a bounded worker pool, and returns per-finding
// outcomes, per spec.md §4.I.
func Run(ctx context.Context, root string, findings []finding.Finding, rotator Rotator, opts Options) Result {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultRotateConcurrency
	}
	if opts.Confirm == nil {
		opts.Confirm = Confirm
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if rotator.Destructive() && !opts.DryRun && !opts.Force && !opts.Interactive {
		return Result{Refused: true, RefusalReason: fmt.Sprintf(
			"rotator %q is destructive; pass dry_run, force, or interactive before it will touch files", rotator.Name())}
	}

	groups, order := groupByFile(findings)
	updater := safefile.NewUpdater(root)
	updater.Now = opts.Now

	results := make([]FileOutcome, len(order))
	var next int64 = -1
	n := opts.Concurrency
	if n > len(order) {
		n = len(order)
	}
	if n <= 0 {
		n = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := atomic.AddInt64(&next, 1)
				if int(i) >= len(order) {
					return
				}
				file := order[i]
				results[i] = rotateFile(ctx, updater, file, groups[file], rotator, opts)
			}
		}()
	}
	wg.Wait()

	return Result{Files: results}
}

func groupByFile(findings []finding.Finding) (map[string][]finding.Finding, []string) {
	groups := map[string][]finding.Finding{}
	var order []string
	for _, f := range findings {
		if _, ok := groups[f.FilePath]; !ok {
			order = append(order, f.FilePath)
		}
		groups[f.FilePath] = append(groups[f.FilePath], f)
	}
	return groups, order
}

func rotateFile(ctx context.Context, updater *safefile.Updater, path string, group []finding.Finding, rotator Rotator, opts Options) FileOutcome {
	rotatorName := rotator.Name()
	outcome := FileOutcome{FilePath: path, Findings: make([]FindingOutcome, len(group))}
	now := opts.Now()

	type prepared struct {
		idx         int
		placeholder string
		token       string
	}
	var approvedPrep []prepared
	anyApproved := false

	for idx, f := range group {
		state, message := approve(f, opts)
		if state != StateApproved {
			outcome.Findings[idx] = FindingOutcome{Finding: f, State: state, Message: message}
			fireEvent(opts, rotatorName, f, state, "", message)
			continue
		}

		placeholder, token, err := rotator.Prepare(ctx, f, opts.Template, now)
		if err != nil {
			outcome.Findings[idx] = FindingOutcome{Finding: f, State: StateFailed, Message: err.Error()}
			fireEvent(opts, rotatorName, f, StateFailed, "", err.Error())
			continue
		}
		ref := ""
		if token != "" {
			ref = placeholder
		}
		outcome.Findings[idx] = FindingOutcome{Finding: f, State: StateApproved, Ref: ref}
		approvedPrep = append(approvedPrep, prepared{idx: idx, placeholder: placeholder, token: token})
		anyApproved = true
	}

	if !anyApproved {
		return outcome
	}

	result := updater.SafeUpdate(path, func(content string) (string, error) {
		for _, p := range approvedPrep {
			match := group[p.idx].Match
			re, err := regexp.Compile(regexp.QuoteMeta(match))
			if err != nil {
				return "", fmt.Errorf("compiling literal match pattern: %w", err)
			}
			content = re.ReplaceAllLiteralString(content, p.placeholder)
		}
		return content, nil
	})

	outcome.BackupPath = result.BackupPath
	outcome.Err = result.Error

	for _, p := range approvedPrep {
		f := group[p.idx]
		if result.Success {
			outcome.Findings[p.idx].State = StateFileUpdated
			fireEvent(opts, rotatorName, f, StateFileUpdated, outcome.Findings[p.idx].Ref, "")
		} else {
			rotator.Rollback(ctx, f, p.token)
			outcome.Findings[p.idx].State = StateRollbackDone
			outcome.Findings[p.idx].Message = result.Error.Error()
			fireEvent(opts, rotatorName, f, StateRollbackDone, "", result.Error.Error())
		}
	}
	return outcome
}

// approve computes whether finding f should be mutated, per spec.md
// §4.I step 3 (the coordinator has already confirmed the overall run
// is not refused before this is called).
func approve(f finding.Finding, opts Options) (State, string) {
	if opts.DryRun {
		return StateSkipped, fmt.Sprintf("Would replace in %s:%d", f.FilePath, f.Line)
	}
	if opts.Interactive {
		if opts.InteractiveAuto == "y" || opts.InteractiveAuto == "Y" {
			return StateApproved, ""
		}
		if opts.InteractiveAuto == "n" || opts.InteractiveAuto == "N" {
			return StateSkipped, "declined via interactive-auto override"
		}
		ok, err := opts.Confirm(fmt.Sprintf("Replace %s at %s:%d?", f.RuleName, f.FilePath, f.Line))
		if err != nil || !ok {
			return StateSkipped, "declined interactively"
		}
		return StateApproved, ""
	}
	return StateApproved, ""
}

// fireEvent notifies opts.OnEvent, masking any credential text that
// might have leaked into message via an underlying error.
func fireEvent(opts Options, rotatorName string, f finding.Finding, state State, ref, message string) {
	metrics.RotationsTotal.WithLabelValues(rotatorName, string(state)).Inc()
	if opts.OnEvent != nil {
		opts.OnEvent(f, state, ref, redact.Mask(message))
	}
}
