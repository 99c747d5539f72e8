package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/aledsdavies/weave/core/diag"
)

// stdinName labels templates read from standard input.
const stdinName = "<stdin>"

// readTemplate handles the 2 modes of input:
// 1. Explicit stdin with "-"
// 2. File input
func (a *app) readTemplate(path string) (string, []byte, error) {
	if path == "-" {
		src, err := io.ReadAll(a.stdin)
		if err != nil {
			return stdinName, nil, diag.Loader(diag.ErrTemplateRead, err, "cannot read standard input")
		}
		return stdinName, src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil, diag.Loader(diag.ErrTemplateNotFound, err, "template %q not found", path)
		}
		return path, nil, diag.Loader(diag.ErrTemplateRead, err, "cannot read template %q", path)
	}
	return path, src, nil
}

// inputs expands the command arguments into template paths. Directories
// are searched with the config's include patterns; no arguments searches
// the config directory.
func (a *app) inputs(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{a.cfg.Dir()}
	}
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if arg == "-" || err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := a.cfg.Templates(arg)
		if err != nil {
			return nil, &CLIError{Code: ExitIOError, Message: "cannot search " + arg, Details: err.Error()}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, &CLIError{
			Message: "no templates found",
			Hint:    "pass template paths or set `include` in weave.yaml",
		}
	}
	return paths, nil
}
