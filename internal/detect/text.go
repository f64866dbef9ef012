package detect

import (
	"bufio"
	"context"
	"os"

	"github.com/oktsec/secretsentinel/internal/mlhook"
)

// Text scans path as UTF-8 text, applying the shared rule/entropy/hook
// contract line by line with no domain-specific heuristic.
func Text(ctx context.Context, path string, opts Options) (Result, error) {
	return textLike(ctx, path, opts, nil)
}

// textLike is the shared implementation behind Text, Env, and
// Dockerfile: open, size-cap, stream lines, optionally re-read once
// for the ML hook's file entry point.
func textLike(ctx context.Context, path string, opts Options, heur lineHeuristic) (Result, error) {
	res := newResult()

	info, err := os.Stat(path)
	if err != nil {
		res.skip(SkipUnreadable)
		res.SkippedWhole = true
		return res, nil
	}
	if opts.MaxFileBytes > 0 && info.Size() > opts.MaxFileBytes {
		res.skip(SkipTooLarge)
		res.SkippedWhole = true
		return res, nil
	}
	if info.Size() == 0 {
		if opts.HashMode {
			res.Hash = emptyHash()
		}
		return res, nil
	}

	f, err := os.Open(path)
	if err != nil {
		res.skip(SkipUnreadable)
		res.SkippedWhole = true
		return res, nil
	}
	defer f.Close()

	findings, lineRes := scanLines(ctx, bufio.NewReader(f), path, opts, heur)
	res.Findings = findings
	res.Hash = lineRes.Hash
	for k, v := range lineRes.SkipCounts {
		res.SkipCounts[k] += v
	}

	if opts.Hook != nil {
		mode := opts.Hook.Mode()
		if mode == mlhook.ModeFile || mode == mlhook.ModeBoth {
			if lines, err := readAllLines(path, opts.MaxFileBytes); err == nil {
				res.Findings = append(res.Findings, fileModeHook(ctx, path, lines, opts.Hook)...)
			}
		}
	}

	return res, nil
}

func readAllLines(path string, maxBytes int64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	r := bufio.NewReader(f)
	var total int64
	for {
		raw, err := r.ReadString('\n')
		if len(raw) > 0 {
			lines = append(lines, trimCRLF(raw))
			total += int64(len(raw))
			if maxBytes > 0 && total > maxBytes {
				break
			}
		}
		if err != nil {
			break
		}
	}
	return lines, nil
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
