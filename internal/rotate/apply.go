package rotate

import (
	"context"
	"fmt"
	"time"

	"github.com/oktsec/secretsentinel/internal/finding"
)

// ApplyRotator replaces matched secrets in place with a local
// placeholder; it never contacts a secret backend.
type ApplyRotator struct{}

func (ApplyRotator) Name() string       { return "apply" }
func (ApplyRotator) Destructive() bool  { return true }
func (ApplyRotator) DefaultTemplate() string {
	return "__REPLACED_SECRET_{{timestamp}}__"
}

func (ApplyRotator) Prepare(_ context.Context, f finding.Finding, template string, now time.Time) (string, string, error) {
	if template == "" {
		template = ApplyRotator{}.DefaultTemplate()
	}
	ts := fmt.Sprintf("%d", now.UnixMilli())
	return expandTemplate(template, f.Match, ts, f.FilePath, ""), "", nil
}

func (ApplyRotator) Rollback(context.Context, finding.Finding, string) {}
