package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/livetree/internal/config"
	"github.com/dshills/livetree/internal/engine/model"
	"github.com/dshills/livetree/internal/engine/notation"
	"github.com/dshills/livetree/internal/logging"
	"github.com/dshills/livetree/internal/scenario"
	"github.com/dshills/livetree/internal/script"
	"github.com/dshills/livetree/internal/watcher"
)

// runner dispatches input files by extension.
type runner struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func newRunner(cfg *config.Config, logger *zap.Logger, out io.Writer) *runner {
	return &runner{cfg: cfg, logger: logger, out: out}
}

// runAll runs every file named by paths, expanding directories. It reports
// whether any file failed.
func (r *runner) runAll(ctx context.Context, paths []string) bool {
	files, err := r.expand(paths)
	if err != nil {
		r.logger.Error("collecting files", zap.Error(err))
		return true
	}
	failed := false
	for _, file := range files {
		if ctx.Err() != nil {
			return true
		}
		if err := r.runFile(ctx, file); err != nil {
			r.logger.Error("run failed", zap.String("file", file), zap.Error(err))
			failed = true
		}
	}
	return failed
}

// expand replaces directories with the runnable files below them.
func (r *runner) expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && r.runnable(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func (r *runner) runnable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".lua", ".html":
		return true
	}
	return false
}

func (r *runner) runFile(ctx context.Context, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return r.runScenario(path)
	case ".lua":
		return r.runScript(ctx, path)
	case ".html":
		return r.normalize(path)
	default:
		return fmt.Errorf("%s: unsupported file type", path)
	}
}

func (r *runner) runScenario(path string) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}
	journal := 0
	if r.cfg.Journal.Enabled {
		journal = r.cfg.Journal.MaxChanges
	}
	report, err := s.Run(
		scenario.WithLogger(logging.Named(r.logger, "scenario")),
		scenario.WithJournalSize(journal),
	)
	if err != nil {
		return err
	}
	out, err := report.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "---\n%s", out)
	return report.Err()
}

func (r *runner) runScript(ctx context.Context, path string) error {
	journal := 0
	if r.cfg.Journal.Enabled {
		journal = r.cfg.Journal.MaxChanges
	}
	host := script.New(
		script.WithLogger(logging.Named(r.logger, "script")),
		script.WithTimeout(r.cfg.ScriptTimeout()),
		script.WithCallStackSize(r.cfg.Script.CallStackSize),
		script.WithMaxCalls(r.cfg.Script.MaxCalls),
		script.WithJournal(journal),
		script.WithOutput(r.out),
	)
	defer host.Close()
	return host.RunFile(ctx, path)
}

// normalize loads markup into the default root and prints it back.
func (r *runner) normalize(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc := model.NewDocument(model.WithLogger(logging.Named(r.logger, "document")))
	root, err := doc.CreateRoot(r.cfg.Document.DefaultRoot)
	if err != nil {
		return err
	}
	at, err := model.NewPosition(root, []int{0})
	if err != nil {
		return err
	}
	rng, err := notation.Load(doc, at, string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintln(r.out, notation.Stringify(root, rng))
	if rng != nil {
		fmt.Fprintf(r.out, "range %s\n", rng)
	}
	return nil
}

// watch re-runs changed files until ctx is cancelled.
func (r *runner) watch(ctx context.Context, paths []string) error {
	w, err := watcher.New(
		watcher.WithDebounce(r.cfg.WatchDebounce()),
		watcher.WithExtensions(r.cfg.Watch.Extensions...),
		watcher.WithLogger(logging.Named(r.logger, "watcher")),
	)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return err
		}
	}
	r.logger.Info("watching", zap.Strings("paths", paths))
	return w.Run(ctx, func(changed []string) {
		var files []string
		for _, p := range changed {
			if r.runnable(p) {
				files = append(files, p)
			}
		}
		if len(files) > 0 {
			r.runAll(ctx, files)
		}
	})
}
