// Package pack is the orchestrator: it sequences the collect, classify,
// and archive stages for one maildir and reports a summary.
package pack

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"

	"github.com/eslider/maildirpack/internal/archive"
	"github.com/eslider/maildirpack/internal/classify"
	"github.com/eslider/maildirpack/internal/collect"
	"github.com/eslider/maildirpack/internal/logging"
)

// RunConfig configures one orchestrator run.
type RunConfig struct {
	Maildir   string // path to the maildir root (must contain "new")
	PackedDir string // destination directory for *.tar.xz archives
	Quiet     bool   // suppress stage banners and progress bars
	Workers   int    // bounds concurrency in both the scan and archive phases
}

// RunStats summarizes one completed run.
type RunStats struct {
	MessagesScanned int
	Buckets         int
	MessagesAdded   int
	MessagesSkipped int
	Mismatches      int
}

// Run drives Collector -> Classifier -> Archiver for cfg.Maildir and
// returns a summary. Any fatal stage error aborts the run and is returned
// wrapped with eris context identifying which stage failed.
func Run(ctx context.Context, cfg RunConfig, logger logging.Logger) (RunStats, error) {
	if logger == nil {
		logger = logging.Default
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// Stage banners go through banner so that cfg.Quiet silences them
	// whatever logger was passed; warnings still go to logger.
	banner := func(msg string, args ...interface{}) {
		if !cfg.Quiet {
			logger.Info(msg, args...)
		}
	}

	banner("scanning %s", cfg.Maildir)
	scanBar := newProgressBar(cfg.Quiet, -1, "scanning")
	defer scanBar.Close()

	messages, err := collect.List(ctx, cfg.Maildir, workers, logger, func(delta int) {
		_ = scanBar.Add(delta)
	})
	if err != nil {
		return RunStats{}, eris.Wrap(err, "scanning maildir")
	}

	banner("classifying %d messages", len(messages))
	buckets := classify.Classify(messages)

	if err := os.MkdirAll(cfg.PackedDir, 0o755); err != nil {
		return RunStats{}, eris.Wrap(err, "creating packed directory")
	}

	banner("archiving %d buckets", len(buckets))
	archiveBar := newProgressBar(cfg.Quiet, len(buckets), "archiving")
	defer archiveBar.Close()

	results, err := archive.MergeAll(buckets, cfg.PackedDir, workers, logger, func() {
		_ = archiveBar.Add(1)
	})
	if err != nil {
		return RunStats{}, eris.Wrap(err, "archiving buckets")
	}

	stats := RunStats{MessagesScanned: len(messages), Buckets: len(results)}
	for _, r := range results {
		stats.MessagesAdded += r.Added
		stats.MessagesSkipped += r.Skipped
		stats.Mismatches += r.Mismatch
	}

	banner("done: %d buckets, %d added, %d skipped, %d mismatches",
		stats.Buckets, stats.MessagesAdded, stats.MessagesSkipped, stats.Mismatches)

	return stats, nil
}

// newProgressBar returns a visible bar, or a hidden one writing to
// io.Discard when quiet is requested; max of -1 renders a spinner-style
// indeterminate bar, matching the scan phase's unknown total.
func newProgressBar(quiet bool, max int, description string) *progressbar.ProgressBar {
	if quiet {
		return progressbar.NewOptions(max, progressbar.OptionSetWriter(io.Discard))
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	)
}
