// Package config assembles a pack.RunConfig from command-line flags
// layered over an optional packer.yml defaults file.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/eslider/maildirpack/internal/pack"
)

const configFileName = "packer.yml"

// fileDefaults mirrors the subset of RunConfig that packer.yml may supply.
// Unset fields (nil pointers) leave the corresponding flag default in place.
type fileDefaults struct {
	Quiet   *bool `yaml:"quiet"`
	Workers *int  `yaml:"workers"`
}

// Load looks for packer.yml in the binary's directory, then in
// $XDG_CONFIG_HOME/maildirpack/ (or ~/.config/maildirpack/ when
// XDG_CONFIG_HOME is unset), and returns the defaults from the first file
// found; later locations are not read. A missing file is not an error; a
// malformed one is.
func Load() (quiet *bool, workers *int, err error) {
	for _, dir := range searchDirs() {
		path := filepath.Join(dir, configFileName)
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return nil, nil, readErr
		}

		var fd fileDefaults
		if err := yaml.Unmarshal(data, &fd); err != nil {
			return nil, nil, err
		}
		return fd.Quiet, fd.Workers, nil
	}
	return nil, nil, nil
}

func searchDirs() []string {
	dirs := make([]string, 0, 2)
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "maildirpack"))
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "maildirpack"))
	}
	return dirs
}

// Build assembles a pack.RunConfig for maildir, applying file defaults and
// then the explicit flag values: flagQuiet=true always forces quiet mode
// (false leaves the file's value in place), and flagWorkers overrides the
// file only when the caller reports via hasWorkers that the flag was set.
func Build(maildir string, fileQuiet *bool, fileWorkers *int, flagQuiet bool, flagWorkers int, hasWorkers bool) pack.RunConfig {
	cfg := pack.RunConfig{
		Maildir:   maildir,
		PackedDir: filepath.Join(maildir, "packed"),
		Quiet:     flagQuiet,
		Workers:   runtime.GOMAXPROCS(0),
	}
	if fileQuiet != nil {
		cfg.Quiet = *fileQuiet
	}
	if fileWorkers != nil {
		cfg.Workers = *fileWorkers
	}
	if flagQuiet {
		cfg.Quiet = true
	}
	if hasWorkers {
		cfg.Workers = flagWorkers
	}
	return cfg
}
