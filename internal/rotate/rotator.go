// Package rotate implements the rotation coordinator of spec.md §4.I:
// grouping findings by file, a bounded worker pool over files, an
// approval step (dry-run/force/interactive), template-driven
// placeholder generation, and a single atomic file write per file via
// internal/safefile.
package rotate

import (
	"context"
	"time"

	"github.com/oktsec/secretsentinel/internal/finding"
)

// Rotator is one rotation strategy (apply a local placeholder, or
// write to a secret backend and leave a reference).
type Rotator interface {
	Name() string

	// Destructive reports whether this rotator mutates files. A
	// destructive rotator without dry_run/force/interactive makes the
	// coordinator refuse the whole run before any mutation.
	Destructive() bool

	// DefaultTemplate is used when the caller supplies no template.
	DefaultTemplate() string

	// Prepare resolves the placeholder text for one approved finding
	// and performs any side effect (e.g. writing to a secret backend)
	// that must happen before the file is rewritten. now is the
	// timestamp used for template expansion and key generation. token
	// is opaque state Rollback needs to undo the side effect; rotators
	// with no side effect return "".
	Prepare(ctx context.Context, f finding.Finding, template string, now time.Time) (placeholder, token string, err error)

	// Rollback undoes Prepare's side effect for one finding whose
	// file write ultimately failed. Best-effort; errors are not
	// propagated beyond logging.
	Rollback(ctx context.Context, f finding.Finding, token string)
}
