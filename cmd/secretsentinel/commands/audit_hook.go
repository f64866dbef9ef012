package commands

import (
	"fmt"
	"time"

	"github.com/oktsec/secretsentinel/internal/audit"
	"github.com/oktsec/secretsentinel/internal/finding"
	"github.com/oktsec/secretsentinel/internal/rotate"
)

// auditEventHook adapts rotate.Options.OnEvent into an audit.Writer
// call. w may be nil, in which case events are dropped: the rotation
// coordinator doesn't know or care whether auditing is configured.
func auditEventHook(w *audit.Writer) func(f finding.Finding, state rotate.State, ref, message string) {
	return func(f finding.Finding, state rotate.State, ref, message string) {
		if w == nil {
			return
		}
		status := string(state)
		if message != "" {
			status = fmt.Sprintf("%s: %s", state, message)
		}
		ts := time.Now().UTC().Format(time.RFC3339)
		_ = w.Write(audit.NewRotationEvent(ts, f.FilePath, f.Line, f.RuleName, status, ref))
	}
}
