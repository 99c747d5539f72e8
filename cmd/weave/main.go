// Command weave compiles directive templates into trees for code generators.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/weave/core/compiler"
	"github.com/aledsdavies/weave/core/pipeline"
	"github.com/aledsdavies/weave/runtime/config"
	"github.com/aledsdavies/weave/runtime/markup"
)

// version is set with -ldflags "-X main.version=...".
var version = "0.1.0"

// Exit codes
const (
	ExitSuccess          = 0
	ExitInvalidArguments = 1
	ExitIOError          = 2
	ExitCompileError     = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app carries the persistent flags and resolved configuration shared by
// every subcommand.
type app struct {
	configPath string
	prefix     string
	debug      bool
	noColor    bool

	cfg      *config.Config
	useColor bool

	stdin          io.Reader
	stdout, stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		return a.report(err)
	}
	return ExitSuccess
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "weave [command]",
		Short:         "Compile directive templates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to weave.yaml (default: search upward, or $"+config.EnvVar+")")
	root.PersistentFlags().StringVar(&a.prefix, "prefix", "", "Directive attribute prefix (overrides config)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Print pipeline telemetry and trace")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(a.compileCmd(), a.checkCmd(), a.directivesCmd(), a.watchCmd())
	return root
}

func (a *app) setup() error {
	a.useColor = ShouldUseColor(a.noColor, a.stdout)

	wd, err := os.Getwd()
	if err != nil {
		return &CLIError{Code: ExitIOError, Message: "cannot determine working directory", Details: err.Error()}
	}
	cfg, err := config.Resolve(a.configPath, wd)
	if err != nil {
		return &CLIError{Code: ExitInvalidArguments, Message: "cannot load configuration", Details: err.Error()}
	}
	if err := cfg.CheckVersion(version); err != nil {
		return &CLIError{Code: ExitInvalidArguments, Message: err.Error(), Hint: "upgrade weave or lower `requires` in " + cfg.Path}
	}
	a.cfg = cfg
	return nil
}

// compiler builds a compiler from the config, the flags and extra options.
func (a *app) compiler(extra ...compiler.Option) *compiler.Compiler {
	opts := a.cfg.CompilerOptions()
	if a.prefix != "" {
		opts = append(opts, compiler.WithPrefix(a.prefix))
	}
	if a.debug {
		opts = append(opts, compiler.WithPipelineOptions(pipeline.WithTelemetryTiming(), pipeline.WithDebugPaths()))
	}
	return compiler.Default(append(opts, extra...)...)
}

func (a *app) markupOptions() []markup.Option {
	if a.cfg.ComponentNamespace == "" {
		return nil
	}
	return []markup.Option{markup.WithComponentNamespace(a.cfg.ComponentNamespace)}
}

// report prints err and maps it to an exit code.
func (a *app) report(err error) int {
	FormatError(a.stderr, err, a.useColor)
	if ce, ok := err.(*CLIError); ok && ce.Code != 0 {
		return ce.Code
	}
	if _, ok := err.(*compileFailure); ok {
		return ExitCompileError
	}
	return ExitInvalidArguments
}

func (a *app) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) eprintf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.stderr, format, args...)
}
