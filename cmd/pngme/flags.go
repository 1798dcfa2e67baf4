package main

import (
	"fmt"

	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/flaneur2020/pngme/pngme/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
)

type cliOptions struct {
	logLevel string
	verbose  bool
	progress bool
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *cliOptions) {
	fs.StringVar(&opts.logLevel, "log-level", "error", "Log level: silent, error, warn, info or debug")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output (same as --log-level=info)")
	fs.BoolVar(&opts.progress, "progress", false, "Show a progress bar while reading and writing files")
}

func bindOutputFlag(fs *pflag.FlagSet, output *string) {
	fs.StringVarP(output, "output", "o", "", "Write the result to this file instead of overwriting the input")
}

// apply configures the logger from the parsed flags.
func (o *cliOptions) apply() error {
	level, err := logger.ParseLogLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if o.verbose && level < logger.LogLevelInfo {
		level = logger.LogLevelInfo
	}
	logger.SetLogLevel(level)
	return nil
}

// progressFor returns a callback that drives a byte progress bar, or nil when
// progress output is disabled. The bar is created once the total is known.
func (o *cliOptions) progressFor(description string) storage.ProgressCallback {
	if !o.progress {
		return nil
	}

	var bar *progressbar.ProgressBar
	return func(current, total int64) {
		if bar == nil && total > 0 {
			bar = progressbar.DefaultBytes(total, description)
		}
		if bar != nil {
			bar.Set64(current)
		}
	}
}
