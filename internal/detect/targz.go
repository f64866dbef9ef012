package detect

import (
	"archive/tar"
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
)

// TarGz streams a .tar.gz archive per spec.md §4.E, avoiding the full
// buffering Zip requires since tar entries arrive sequentially.
func TarGz(ctx context.Context, path string, opts Options) (Result, error) {
	res := newResult()

	f, err := os.Open(path)
	if err != nil {
		res.skip(SkipUnreadable)
		res.SkippedWhole = true
		return res, nil
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		res.skip(SkipUnreadable)
		res.SkippedWhole = true
		return res, nil
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var archiveBytes int64
	entries := 0

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if opts.Archive.MaxEntries > 0 && entries >= opts.Archive.MaxEntries {
			res.skip(SkipArchiveBudget)
			break
		}
		if opts.Archive.MaxEntryBytes > 0 && hdr.Size > opts.Archive.MaxEntryBytes {
			res.skip(SkipArchiveEntryTooLarge)
			if _, err := io.CopyN(io.Discard, tr, hdr.Size); err != nil {
				break
			}
			continue
		}
		if opts.Archive.MaxTotalBytes > 0 && archiveBytes+hdr.Size > opts.Archive.MaxTotalBytes {
			res.skip(SkipArchiveBudget)
			break
		}
		if opts.Archive.Global != nil && opts.Archive.GlobalCap > 0 {
			if atomic.LoadInt64(opts.Archive.Global) > opts.Archive.GlobalCap {
				res.skip(SkipArchiveBudget)
				break
			}
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			continue
		}

		entries++
		archiveBytes += int64(len(data))
		if opts.Archive.Global != nil {
			atomic.AddInt64(opts.Archive.Global, int64(len(data)))
		}

		entryPath := fmt.Sprintf("%s:%s", path, normalizeArchivePath(hdr.Name))
		findings, lineRes := scanLines(ctx, bufio.NewReader(strings.NewReader(toValidUTF8(data))), entryPath, opts, nil)
		res.Findings = append(res.Findings, findings...)
		for k, v := range lineRes.SkipCounts {
			res.SkipCounts[k] += v
		}
	}

	return res, nil
}
