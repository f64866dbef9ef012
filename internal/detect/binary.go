package detect

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"
	"unicode/utf8"
)

const binarySampleSize = 4096

// looksBinary samples the first binarySampleSize bytes of data: if any
// NUL byte appears, or more than 30% of sampled bytes are not valid
// printable/whitespace text, the content is treated as binary.
func looksBinary(data []byte) bool {
	sample := data
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	if len(sample) == 0 {
		return false
	}
	nonText := 0
	for _, b := range sample {
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if b < 0x20 || b == 0x7f {
			nonText++
			continue
		}
	}
	return float64(nonText)/float64(len(sample)) > 0.30
}

// Binary scans path only when explicitly enabled: it samples the
// leading bytes to reject genuinely binary content, then decodes the
// remainder as lossy UTF-8 and treats it like text. Never falls
// through silently when disabled — callers must check opts.EnableBinary
// before dispatching here.
func Binary(ctx context.Context, path string, opts Options) (Result, error) {
	res := newResult()
	if !opts.EnableBinary {
		res.SkippedWhole = true
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		res.skip(SkipUnreadable)
		res.SkippedWhole = true
		return res, nil
	}
	maxBytes := opts.BinaryMaxBytes
	if maxBytes <= 0 {
		maxBytes = opts.MaxFileBytes
	}
	if maxBytes > 0 && info.Size() > maxBytes {
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

	raw, err := os.ReadFile(path)
	if err != nil {
		res.skip(SkipUnreadable)
		res.SkippedWhole = true
		return res, nil
	}
	if looksBinary(raw) {
		res.skip(SkipBinaryRejected)
		res.SkippedWhole = true
		return res, nil
	}

	text := toValidUTF8(raw)
	findings, lineRes := scanLines(ctx, bufio.NewReader(strings.NewReader(text)), path, opts, nil)
	res.Findings = findings
	res.Hash = lineRes.Hash
	for k, v := range lineRes.SkipCounts {
		res.SkipCounts[k] += v
	}
	return res, nil
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
