// maildirpack packs a maildir's new/ messages into monthly
// YYYY-MM.tar.xz archives under a sibling packed/ directory.
//
// Usage:
//
//	maildirpack [--quiet] [--workers N] <maildir>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/eslider/maildirpack/internal/config"
	"github.com/eslider/maildirpack/internal/logging"
	"github.com/eslider/maildirpack/internal/pack"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("maildirpack", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: maildirpack [--quiet] [--workers N] <maildir>")
		fs.PrintDefaults()
	}

	quiet := fs.Bool("quiet", false, "suppress stage banners and progress output")
	workers := fs.Int("workers", 0, "bound concurrency (default: GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	maildir := fs.Arg(0)

	fileQuiet, fileWorkers, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading packer.yml: %v\n", err)
		return 1
	}

	hasWorkers := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "workers" {
			hasWorkers = true
		}
	})

	cfg := config.Build(maildir, fileQuiet, fileWorkers, *quiet, *workers, hasWorkers)

	logger := logging.Default
	if cfg.Quiet {
		logger = logging.NewQuiet()
	}

	if _, err := pack.Run(context.Background(), cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "maildirpack: %v\n", err)
		return 1
	}
	return 0
}
