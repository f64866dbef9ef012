// Package ignore resolves which files a scan should skip, combining
// .gitignore, .secretignore, and CLI-supplied patterns, per spec.md
// §4.D.
package ignore

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Matcher answers ignore queries for a single scan root. It is a pure
// function of the patterns it was built from; results are never
// cached across scans since the underlying ignore files can change
// between runs.
type Matcher struct {
	compiled *gitignore.GitIgnore
	patterns []string
}

// New builds a Matcher for root by reading .gitignore and
// .secretignore (in that order, if present) and appending extra CLI
// patterns.
func New(root string, extra []string) (*Matcher, error) {
	var lines []string
	for _, name := range []string{".gitignore", ".secretignore"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		lines = append(lines, splitLines(string(data))...)
	}
	lines = append(lines, extra...)

	compiled := gitignore.CompileIgnoreLines(lines...)
	return &Matcher{compiled: compiled, patterns: lines}, nil
}

// Match reports whether relPath (relative to the process working
// directory, using standard gitignore semantics) should be ignored.
func (m *Matcher) Match(relPath string) bool {
	if m == nil || m.compiled == nil {
		return false
	}
	return m.compiled.MatchesPath(relPath)
}

// Patterns returns the ordered pattern lines the matcher was built
// from, for diagnostics.
func (m *Matcher) Patterns() []string {
	return m.patterns
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, trimCR(s[start:i]))
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, trimCR(s[start:]))
	}
	return out
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
