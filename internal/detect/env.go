package detect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/oktsec/secretsentinel/internal/finding"
)

func emptyHash() string {
	h := sha256.Sum256(nil)
	return hex.EncodeToString(h[:])
}

var sensitiveNamePattern = regexp.MustCompile(`(?i)(secret|token|password|passwd|pwd|api[_-]?key|apikey|access[_-]?key|private[_-]?key|credential|auth)`)

const minSensitiveValueLen = 12

// envAssignment splits a "KEY=VALUE" line (optionally export-prefixed
// and quoted) into key and value, returning ok=false if the line isn't
// an assignment.
func envAssignment(line string) (key, value string, column int, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", 0, false
	}
	body := strings.TrimPrefix(trimmed, "export ")

	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return "", "", 0, false
	}
	key = strings.TrimSpace(body[:eq])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", 0, false
	}
	rawValue := body[eq+1:]
	value = strings.Trim(rawValue, `"'`)

	prefix := body[:eq+1]
	idx := strings.Index(line, prefix)
	if idx < 0 {
		return "", "", 0, false
	}
	valueStart := idx + len(prefix)
	if len(value) < len(rawValue) {
		valueStart++ // skip the opening quote character that was trimmed
	}
	return key, value, valueStart + 1, true
}

// envHeuristic implements spec.md §4.E's env-file check: a KEY=VALUE
// assignment whose key matches a sensitive-name pattern and whose
// value is at least minSensitiveValueLen bytes emits a finding at the
// value's column.
func envHeuristic(filePath string) lineHeuristic {
	return func(lineNum int, line string) []finding.Finding {
		key, value, col, ok := envAssignment(line)
		if !ok || !sensitiveNamePattern.MatchString(key) || len(value) < minSensitiveValueLen {
			return nil
		}
		return []finding.Finding{{
			FilePath: filePath,
			Line:     lineNum,
			Column:   col,
			Match:    value,
			Context:  finding.TrimContext(line),
			RuleName: "Sensitive Env Value",
			Severity: finding.Medium,
		}}
	}
}

// Env scans a .env-style file, layering the sensitive-assignment
// heuristic on top of the shared rule/entropy/hook pass.
func Env(ctx context.Context, path string, opts Options) (Result, error) {
	return textLike(ctx, path, opts, envHeuristic(path))
}
