// Package archive implements the merge-write engine that rebuilds a
// bucket's ".tar.xz" archive from its previous contents plus a batch of
// new messages, deduplicating by content hash and finalizing through a
// crash-safe temp-file rename.
package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz"
	"golang.org/x/sync/errgroup"

	"github.com/eslider/maildirpack/internal/logging"
	"github.com/eslider/maildirpack/internal/model"
)

// xzDictCap approximates xz preset level 9's dictionary size (64 MiB);
// ulikunitz/xz has no direct numeric preset knob, only DictCap.
const xzDictCap = 1 << 26

const (
	archiveSuffix = ".tar.xz"
	tmpSuffix     = ".tar.xz.tmp"
	bakSuffix     = ".tar.xz.bak"
)

// Stats summarizes one bucket's merge for logging and tests.
type Stats struct {
	Bucket    model.BucketName
	Added     int
	Skipped   int // already present with matching content
	Mismatch  int // present under the same name with different content
}

// MergeAll archives every bucket in buckets into packedDir, one goroutine
// per bucket bounded by workers. Buckets are independent: each touches
// only its own archive/tmp/bak triple, so no cross-task synchronization on
// storage is needed. Source messages are removed from disk only after
// their bucket's archive has been successfully finalized.
func MergeAll(buckets map[model.BucketName][]model.MessagePath, packedDir string, workers int, logger logging.Logger, tick func()) ([]Stats, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	names := make([]model.BucketName, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}

	results := make([]Stats, len(names))
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, name := range names {
		i, name := i, name
		messages := buckets[name]
		g.Go(func() error {
			stats, err := Merge(packedDir, name, messages, logger)
			if err != nil {
				return eris.Wrapf(err, "archiving bucket %s", name)
			}
			results[i] = stats
			if tick != nil {
				tick()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Merge rebuilds packedDir/<bucket>.tar.xz from its current contents (if
// any) plus messages, following the algorithm in §4.4: carry forward the
// existing archive under a content-hash index, append messages absent
// from that index, warn and skip on a hash mismatch for a name that's
// already present, then atomically replace the archive and delete the
// now-archived source files.
func Merge(packedDir string, bucket model.BucketName, messages []model.MessagePath, logger logging.Logger) (Stats, error) {
	stats := Stats{Bucket: bucket}

	archivePath := filepath.Join(packedDir, bucket+archiveSuffix)
	tmpPath := filepath.Join(packedDir, bucket+tmpSuffix)
	bakPath := filepath.Join(packedDir, bucket+bakSuffix)

	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return stats, eris.Wrap(err, "creating temp archive")
	}
	defer tmpFile.Close()
	if err := setArchivePermission(tmpFile); err != nil {
		return stats, eris.Wrap(err, "setting temp archive permissions")
	}

	xzWriter, err := (xz.WriterConfig{DictCap: xzDictCap}).NewWriter(tmpFile)
	if err != nil {
		return stats, eris.Wrap(err, "creating xz writer")
	}
	tw := tar.NewWriter(xzWriter)

	existing, err := carryForward(archivePath, tw)
	if err != nil {
		return stats, eris.Wrap(err, "reading existing archive")
	}
	if existing != nil {
		if err := os.Rename(archivePath, bakPath); err != nil {
			return stats, eris.Wrap(err, "backing up existing archive")
		}
	}
	if existing == nil {
		existing = map[string]model.ContentHash{}
	}

	for _, path := range messages {
		name := filepath.Base(path)
		if expected, ok := existing[name]; ok {
			if err := verifyDuplicate(path, name, expected, logger, &stats); err != nil {
				return stats, eris.Wrapf(err, "checking duplicate %s", name)
			}
			continue
		}
		if err := appendMessage(tw, path, name); err != nil {
			return stats, eris.Wrapf(err, "appending %s", name)
		}
		stats.Added++
	}

	if err := tw.Close(); err != nil {
		return stats, eris.Wrap(err, "finalizing tar stream")
	}
	if err := xzWriter.Close(); err != nil {
		return stats, eris.Wrap(err, "finalizing xz stream")
	}
	if err := tmpFile.Close(); err != nil {
		return stats, eris.Wrap(err, "closing temp archive")
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return stats, eris.Wrap(err, "finalizing archive")
	}

	for _, path := range messages {
		if err := os.Remove(path); err != nil {
			return stats, eris.Wrapf(err, "removing archived message %s", path)
		}
	}

	return stats, nil
}

// carryForward opens the existing archive at archivePath, if any, and
// streams every entry's header and payload into tw unchanged, recording
// each entry's content hash. It returns nil with no error when the
// archive does not yet exist (a fresh bucket).
func carryForward(archivePath string, tw *tar.Writer) (map[string]model.ContentHash, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, err
	}
	tr := tar.NewReader(xr)

	index := make(map[string]model.ContentHash)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		// The header is cloned verbatim (not run through normalizeHeader)
		// — carried entries keep whatever mode they already had on disk,
		// per the decision recorded in DESIGN.md for the "clone-verbatim"
		// open question.
		cloned := *hdr
		name := filepath.Base(hdr.Name)

		hasher := NewStreamHasher(tr)
		if err := tw.WriteHeader(&cloned); err != nil {
			return nil, err
		}
		if _, err := io.Copy(tw, hasher); err != nil {
			return nil, err
		}
		index[name] = hasher.Sum()
	}
	return index, nil
}

// verifyDuplicate hashes the candidate source file and compares it with
// the digest already recorded for name in the carried-forward archive.
// A mismatch is logged and the new content is dropped; the carried entry
// is never overwritten.
func verifyDuplicate(path, name string, expected model.ContentHash, logger logging.Logger, stats *Stats) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	got, err := hashReader(f)
	if err != nil {
		return err
	}
	if got == expected {
		stats.Skipped++
		return nil
	}
	stats.Mismatch++
	if logger != nil {
		logger.Error("%s exists in archive but has different content", name)
	}
	return nil
}

// appendMessage opens a new source file and appends it to tw as a fresh
// tar entry, its header built from file metadata and then normalized.
func appendMessage(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	normalizeHeader(hdr)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// setArchivePermission masks the temp archive's permission bits down to
// 0600, preserving any non-permission high bits already set (e.g. setuid
// would survive, though os.OpenFile never sets one here).
func setArchivePermission(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	mode := (info.Mode() &^ 0o777) | 0o600
	return f.Chmod(mode)
}
