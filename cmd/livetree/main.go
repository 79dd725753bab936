// Package main is the entry point for the livetree command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dshills/livetree/internal/config"
	"github.com/dshills/livetree/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	watch      bool
	paths      []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := newRunner(cfg, logger, os.Stdout)
	failed := r.runAll(ctx, opts.paths)
	if !opts.watch {
		if failed {
			return 1
		}
		return 0
	}

	if err := r.watch(ctx, opts.paths); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watch stopped", zap.Error(err))
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides the config")
	flag.BoolVar(&opts.watch, "watch", false, "Re-run files when they change")
	flag.BoolVar(&opts.watch, "w", false, "Re-run files when they change (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "livetree - tree document positions and live ranges\n\n")
		fmt.Fprintf(os.Stderr, "Usage: livetree [options] files...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nFiles:\n")
		fmt.Fprintf(os.Stderr, "  *.yaml, *.yml   Run a scenario and print its report\n")
		fmt.Fprintf(os.Stderr, "  *.lua           Run a script against the livetree module\n")
		fmt.Fprintf(os.Stderr, "  *.html          Parse markup and print it normalized\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  livetree scenarios/move.yaml     Run one scenario\n")
		fmt.Fprintf(os.Stderr, "  livetree -w scenarios            Re-run scenarios on change\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("livetree %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	opts.paths = flag.Args()
	if len(opts.paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	return opts
}
