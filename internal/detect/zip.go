package detect

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// Zip scans a zip archive per spec.md §4.E. Zip requires random
// access so the whole archive is buffered; tar.gz is streamed
// instead. Entries are walked in archive order; the walk stops early
// once the entry-count, per-archive-byte, or global-archive-byte
// budgets would be exceeded.
func Zip(ctx context.Context, path string, opts Options) (Result, error) {
	res := newResult()

	zr, err := zip.OpenReader(path)
	if err != nil {
		res.skip(SkipUnreadable)
		res.SkippedWhole = true
		return res, nil
	}
	defer zr.Close()

	var archiveBytes int64
	entries := 0

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if opts.Archive.MaxEntries > 0 && entries >= opts.Archive.MaxEntries {
			res.skip(SkipArchiveBudget)
			break
		}
		if opts.Archive.MaxEntryBytes > 0 && int64(f.UncompressedSize64) > opts.Archive.MaxEntryBytes {
			res.skip(SkipArchiveEntryTooLarge)
			continue
		}
		if opts.Archive.MaxTotalBytes > 0 && archiveBytes+int64(f.UncompressedSize64) > opts.Archive.MaxTotalBytes {
			res.skip(SkipArchiveBudget)
			break
		}
		if opts.Archive.Global != nil && opts.Archive.GlobalCap > 0 {
			if atomic.LoadInt64(opts.Archive.Global) > opts.Archive.GlobalCap {
				res.skip(SkipArchiveBudget)
				break
			}
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		entries++
		archiveBytes += int64(len(data))
		if opts.Archive.Global != nil {
			atomic.AddInt64(opts.Archive.Global, int64(len(data)))
		}

		entryPath := fmt.Sprintf("%s:%s", path, normalizeArchivePath(f.Name))
		findings, lineRes := scanLines(ctx, bufio.NewReader(strings.NewReader(toValidUTF8(data))), entryPath, opts, nil)
		res.Findings = append(res.Findings, findings...)
		for k, v := range lineRes.SkipCounts {
			res.SkipCounts[k] += v
		}
	}

	return res, nil
}

// normalizeArchivePath forces forward slashes regardless of how the
// archive encoded its entry names, so synthetic "<archive>:<entry>"
// paths are stable across platforms.
func normalizeArchivePath(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
