package main

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/weave/runtime/astfmt"
	"github.com/aledsdavies/weave/runtime/config"
)

// DefaultDebounce groups bursts of events from one save.
const DefaultDebounce = 100 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Recompile templates when they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Dir()
			if len(args) == 1 {
				dir = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, dir, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", DefaultDebounce, "Wait this long after a change before recompiling")
	return cmd
}

// watch compiles every template under dir, then recompiles changed ones
// until ctx is done.
func (a *app) watch(ctx context.Context, dir string, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return &CLIError{Code: ExitIOError, Message: "cannot start watcher", Details: err.Error()}
	}
	defer func() { _ = w.Close() }()

	if err := addTree(w, dir); err != nil {
		return &CLIError{Code: ExitIOError, Message: "cannot watch " + dir, Details: err.Error()}
	}

	files, err := a.cfg.Templates(dir)
	if err != nil {
		return &CLIError{Code: ExitIOError, Message: "cannot search " + dir, Details: err.Error()}
	}
	for _, f := range files {
		a.rebuild(f)
	}
	a.printf("watching %s\n", dir)

	var fire <-chan time.Time
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						a.eprintf("%s %v\n", Colorize("watch:", ColorYellow, a.useColor), err)
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !a.watched(dir, ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			fire = time.After(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.eprintf("%s %v\n", Colorize("watch:", ColorYellow, a.useColor), err)

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]struct{}{}
			for _, p := range paths {
				if _, err := os.Stat(p); err != nil {
					continue
				}
				a.rebuild(p)
			}
		}
	}
}

// rebuild compiles path and prints its digest or its diagnostics.
func (a *app) rebuild(path string) {
	u, err := a.compileOne(a.compiler(), path)
	if err != nil {
		a.diagnose(err, u.src)
		return
	}
	sum, err := astfmt.Digest(u.tree)
	if err != nil {
		a.diagnose(err, u.src)
		return
	}
	a.printf("%s %s %s\n", Colorize("ok", ColorGreen, a.useColor), u.name, Colorize(sum, ColorGray, a.useColor))
}

func (a *app) watched(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	include := a.cfg.Include
	if len(include) == 0 {
		include = config.DefaultInclude
	}
	ok, err := config.Matches(include, filepath.ToSlash(rel))
	return err == nil && ok
}

// addTree watches dir and every directory below it, skipping hidden ones.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
