// Package collect enumerates a maildir's new/ directory and extracts the
// Date header from each message, in parallel.
package collect

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/eslider/maildirpack/internal/datetime"
	"github.com/eslider/maildirpack/internal/logging"
	"github.com/eslider/maildirpack/internal/model"
)

// dateHeaderPrefix is the six-byte case-insensitive prefix that identifies
// a Date header line: "date:" plus the separating space.
var dateHeaderPrefix = []byte("date: ")

// progressEvery controls how often the progress counter is advanced;
// ticking on every message would make the atomic counter itself a
// bottleneck under high parallelism.
const progressEvery = 128

// ProgressFunc is invoked with the number of additional messages scanned
// since the last call. It is called from multiple goroutines and must be
// safe for concurrent use; nil is a valid no-op.
type ProgressFunc func(delta int)

// List enumerates <maildir>/new and returns one CollectedMessage per file,
// in unspecified order. Directory enumeration failures are fatal; failure
// to open or read an individual message file is not — the message is
// retained with a nil Instant, matching an unparseable Date header.
func List(ctx context.Context, maildir string, workers int, logger logging.Logger, progress ProgressFunc) ([]model.CollectedMessage, error) {
	newDir := filepath.Join(maildir, "new")
	entries, err := os.ReadDir(newDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	results := make([]model.CollectedMessage, len(entries))

	g, _ := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	var scanned atomic.Int64
	for i, entry := range entries {
		i, entry := i, entry
		path := filepath.Join(newDir, entry.Name())
		g.Go(func() error {
			instant, err := extractDate(path)
			if err != nil && logger != nil {
				logger.Debug("skipping %s: %v", path, err)
			}
			results[i] = model.CollectedMessage{Path: path, Instant: instant}

			if progress != nil && (i+1)%progressEvery == 0 {
				progress(progressEvery)
			}
			scanned.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if progress != nil {
		if remainder := len(entries) % progressEvery; remainder != 0 {
			progress(remainder)
		}
	}

	return results, nil
}

// extractDate opens a single message file and returns its parsed Date
// header, or nil if the header is missing, empty, or unparseable. A
// non-nil error indicates the file itself could not be opened or read;
// callers treat that as "undated" rather than aborting the run.
func extractDate(path string) (*model.ParsedInstant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := readDateHeader(f)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	value := normalizeHeaderValue(raw)
	instant, ok := datetime.Parse(value)
	if !ok {
		return nil, nil
	}
	return &instant, nil
}

// readDateHeader scans header lines up to the first empty line (or EOF),
// honoring RFC 5322 folding: a continuation line starts with a WSP byte
// and its full content, whitespace included, is appended verbatim to the
// value already captured.
func readDateHeader(r *os.File) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var value []byte
	capturing := false

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			break
		}
		if capturing {
			if isWSP(line[0]) {
				value = append(value, line...)
				continue
			}
			break
		}
		if len(line) >= len(dateHeaderPrefix) && bytes.EqualFold(line[:len(dateHeaderPrefix)], dateHeaderPrefix) {
			value = append([]byte(nil), line[len(dateHeaderPrefix):]...)
			capturing = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !capturing {
		return nil, nil
	}
	return value, nil
}

func isWSP(b byte) bool {
	return b == ' ' || b == '\t'
}

// normalizeHeaderValue trims surrounding whitespace and strips a trailing
// parenthesized timezone comment (" (UTC)", " (MST)", ...) by truncating
// from the last "(" onward.
func normalizeHeaderValue(raw []byte) []byte {
	v := bytes.TrimSpace(raw)
	if idx := bytes.LastIndexByte(v, '('); idx >= 0 {
		v = bytes.TrimSpace(v[:idx])
	}
	return v
}
