package detect

import (
	"context"
	"strings"

	"github.com/oktsec/secretsentinel/internal/finding"
)

// dockerfileHeuristic applies the env-style sensitive-assignment check
// to "ENV KEY=VALUE" and "ARG KEY=VALUE" instructions.
func dockerfileHeuristic(filePath string) lineHeuristic {
	return func(lineNum int, line string) []finding.Finding {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		var rest string
		switch {
		case strings.HasPrefix(upper, "ENV "):
			rest = trimmed[len("ENV "):]
		case strings.HasPrefix(upper, "ARG "):
			rest = trimmed[len("ARG "):]
		default:
			return nil
		}

		key, value, relCol, ok := envAssignment(rest)
		if !ok || !sensitiveNamePattern.MatchString(key) || len(value) < minSensitiveValueLen {
			return nil
		}
		offset := strings.Index(line, rest)
		if offset < 0 {
			offset = 0
		}
		return []finding.Finding{{
			FilePath: filePath,
			Line:     lineNum,
			Column:   offset + relCol,
			Match:    value,
			Context:  finding.TrimContext(line),
			RuleName: "Sensitive Dockerfile Value",
			Severity: finding.Medium,
		}}
	}
}

// Dockerfile scans a Dockerfile, layering the ENV/ARG heuristic on top
// of the shared rule/entropy/hook pass.
func Dockerfile(ctx context.Context, path string, opts Options) (Result, error) {
	return textLike(ctx, path, opts, dockerfileHeuristic(path))
}
