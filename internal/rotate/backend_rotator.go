package rotate

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/oktsec/secretsentinel/internal/backend"
	"github.com/oktsec/secretsentinel/internal/finding"
)

var keyUnsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// BackendRotator writes matched secrets to a backend.Provider and
// replaces the file content with a reference, per spec.md §4.I's
// "Backend rotator specifics". Prepare's token is the backend key
// that was written, so Rollback can delete exactly that entry.
type BackendRotator struct {
	Provider backend.Provider
	Verify   bool

	// KeyFunc overrides key generation; default is
	// sanitized(basename(file))_<line>_<ts>.
	KeyFunc func(f finding.Finding, nowMs int64) string
}

func (r *BackendRotator) Name() string            { return "backend" }
func (r *BackendRotator) Destructive() bool       { return true }
func (r *BackendRotator) DefaultTemplate() string { return "{{ref}}" }

func (r *BackendRotator) key(f finding.Finding, nowMs int64) string {
	if r.KeyFunc != nil {
		return r.KeyFunc(f, nowMs)
	}
	base := keyUnsafeChars.ReplaceAllString(filepath.Base(f.FilePath), "_")
	return fmt.Sprintf("%s_%d_%d", base, f.Line, nowMs)
}

func (r *BackendRotator) Prepare(ctx context.Context, f finding.Finding, template string, now time.Time) (string, string, error) {
	if template == "" {
		template = r.DefaultTemplate()
	}
	key := r.key(f, now.UnixMilli())

	suffix, err := r.Provider.Put(ctx, key, f.Match)
	if err != nil {
		return "", "", fmt.Errorf("writing secret %s to %s backend: %w", key, r.Provider.Name(), err)
	}

	if r.Verify {
		got, found, err := r.Provider.Get(ctx, key)
		if err != nil || !found || got != f.Match {
			_ = r.Provider.Delete(ctx, key)
			if err != nil {
				return "", "", fmt.Errorf("verifying secret %s: %w", key, err)
			}
			return "", "", fmt.Errorf("verifying secret %s: stored value does not match", key)
		}
	}

	ref := fmt.Sprintf("secretref://%s/%s", r.Provider.Name(), suffix)
	ts := fmt.Sprintf("%d", now.UnixMilli())
	return expandTemplate(template, f.Match, ts, f.FilePath, ref), key, nil
}

func (r *BackendRotator) Rollback(ctx context.Context, _ finding.Finding, token string) {
	if token == "" {
		return
	}
	_ = r.Provider.Delete(ctx, token)
}
