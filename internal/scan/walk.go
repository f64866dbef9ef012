package scan

import (
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/oktsec/secretsentinel/internal/ignore"
)

// walk collects candidate regular files under root, honoring ignore
// patterns at directory granularity and never following symlinks, per
// spec.md §4.F step 2.
func walk(root string, matcher *ignore.Matcher) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if rel != "." && matcher.Match(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

// gitChangedFiles returns the set of paths (relative to root) that are
// modified, staged, or untracked relative to base, per spec.md §4.F
// step 3. ok is false when root is not a git working copy or git is
// unavailable, signaling the caller to fall back to a full scan.
func gitChangedFiles(root, base string) (changed map[string]bool, ok bool) {
	if base == "" {
		base = "HEAD"
	}
	diffOut, err := exec.Command("git", "-C", root, "diff", "--name-only", base).Output()
	if err != nil {
		return nil, false
	}
	statusOut, err := exec.Command("git", "-C", root, "status", "--porcelain").Output()
	if err != nil {
		return nil, false
	}

	changed = map[string]bool{}
	for _, line := range strings.Split(string(diffOut), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			changed[line] = true
		}
	}
	for _, line := range strings.Split(string(statusOut), "\n") {
		if len(line) < 4 {
			continue
		}
		changed[strings.TrimSpace(line[3:])] = true
	}
	return changed, true
}
