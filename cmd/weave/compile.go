package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/compiler"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/runtime/astfmt"
	"github.com/aledsdavies/weave/runtime/markup"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// unit is one compiled template.
type unit struct {
	name string
	src  []byte
	res  *compiler.Result
	tree *astfmt.Tree
}

func (a *app) compileCmd() *cobra.Command {
	var (
		format string
		out    string
		digest bool
	)
	cmd := &cobra.Command{
		Use:   "compile [paths...]",
		Short: "Compile templates and print the compiled tree",
		Long: `Compile templates and print the compiled tree.

Paths may be files, directories (searched with the configured include
patterns) or "-" for standard input. Without paths the config directory
is searched.

Formats:
  text   indented tree dump
  json   canonical tree as JSON
  cbor   canonical tree as canonical CBOR`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Format
			}
			if !cmd.Flags().Changed("digest") {
				digest = a.cfg.Digest
			}
			return a.runCompile(args, format, out, digest)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "F", FormatText, "Output format: text, json or cbor")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write output to file instead of stdout")
	cmd.Flags().BoolVar(&digest, "digest", false, "Print the blake2b digest of each compiled tree")
	return cmd
}

func (a *app) runCompile(args []string, format, out string, digest bool) error {
	switch format {
	case FormatText, FormatJSON, FormatCBOR:
	default:
		return &CLIError{Message: fmt.Sprintf("unsupported format %q", format), Hint: "use text, json or cbor"}
	}

	paths, err := a.inputs(args)
	if err != nil {
		return err
	}
	units, err := a.compileAll(paths)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, u := range units {
		if err := encode(&buf, u, format, len(units) > 1); err != nil {
			return err
		}
		if digest {
			sum, err := astfmt.Digest(u.tree)
			if err != nil {
				return err
			}
			a.eprintf("%s  %s\n", sum, u.name)
		}
	}

	if out == "" {
		_, err = a.stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return &CLIError{Code: ExitIOError, Message: "cannot write " + out, Details: err.Error()}
	}
	return nil
}

// compileAll compiles every path, printing a diagnostic for each failure.
func (a *app) compileAll(paths []string) ([]*unit, error) {
	c := a.compiler()
	var (
		units  []*unit
		failed int
	)
	for _, path := range paths {
		u, err := a.compileOne(c, path)
		if err != nil {
			failed++
			a.diagnose(err, u.src)
			continue
		}
		units = append(units, u)
	}
	if failed > 0 {
		return units, &compileFailure{failed: failed, total: len(paths)}
	}
	return units, nil
}

// compileOne parses and compiles one template. The returned unit always
// carries the source, for diagnostics.
func (a *app) compileOne(c *compiler.Compiler, path string) (*unit, error) {
	name, src, err := a.readTemplate(path)
	u := &unit{name: name, src: src}
	if err != nil {
		return u, err
	}

	doc, err := markup.Parse(name, src, a.markupOptions()...)
	if err != nil {
		return u, err
	}
	if u.res, err = c.Compile(doc); err != nil {
		return u, err
	}
	if a.debug {
		a.printDebug(name, u.res)
	}
	if u.tree, err = astfmt.Canonicalize(u.res.Document); err != nil {
		return u, err
	}
	return u, nil
}

func encode(w io.Writer, u *unit, format string, header bool) error {
	switch format {
	case FormatJSON:
		data, err := astfmt.EncodeJSON(u.tree)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatCBOR:
		data, err := astfmt.EncodeCBOR(u.tree)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		if header {
			_, _ = fmt.Fprintf(w, "== %s ==\n", u.name)
		}
		_, err := io.WriteString(w, ast.Dump(u.res.Document))
		return err
	}
}

// diagnose prints err with a source snippet.
func (a *app) diagnose(err error, src []byte) {
	f := diag.Formatter{Source: src, Color: a.useColor}
	_, _ = io.WriteString(a.stderr, f.Format(err))
}

func (a *app) printDebug(name string, res *compiler.Result) {
	if t := res.Telemetry; t != nil {
		a.eprintf("%s %s: %d nodes, %d hooks, %d replacements, %d restarts, depth %d, %s\n",
			Colorize("telemetry", ColorCyan, a.useColor), name,
			t.NodesVisited, t.HookCalls, t.Replacements, t.Restarts, t.MaxDepth, t.TotalTime.Round(time.Microsecond))

		passes := make([]string, 0, len(t.PassTime))
		for p := range t.PassTime {
			passes = append(passes, p)
		}
		sort.Strings(passes)
		for _, p := range passes {
			a.eprintf("  %-22s %s\n", p, t.PassTime[p].Round(time.Microsecond))
		}
	}
	for _, ev := range res.DebugEvents {
		a.eprintf("%s %*s%-8s %-22s %s\n", Colorize("trace", ColorGray, a.useColor), ev.Depth*2, "", ev.Event, ev.Pass, ev.Node)
	}
}
