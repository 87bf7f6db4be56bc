// Package cli parses the modrun command line.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Config is the parsed command line.
type Config struct {
	// WorkspacePath is the HCL workspace file. Empty when Load is set.
	WorkspacePath string

	// Run names the program module to run. Empty runs every program module.
	Run string

	Vars        map[string]string
	ModulePaths []string

	// Export writes the build document to the output instead of running it.
	Export bool

	DB   string
	Save string
	Load string

	LogFormat string
	LogLevel  slog.Level
}

// Parse processes args. It returns the config, whether the program should
// exit cleanly without doing anything, or an *ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("modrun", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
modrun - compile and run a tree of Starlark modules.

Usage:
  modrun [options] [WORKSPACE_PATH]

Arguments:
  WORKSPACE_PATH
    Path to an HCL workspace file. Not needed with -load.

Options:
`)
		flagSet.PrintDefaults()
	}

	cfg := &Config{Vars: make(map[string]string)}
	flagSet.StringVar(&cfg.Run, "run", "", "Name of the program module to run. Runs every program module when empty.")
	flagSet.BoolVar(&cfg.Export, "export", false, "Write the build as YAML instead of running it.")
	flagSet.StringVar(&cfg.DB, "db", "modrun.db", "Path to the SQLite workspace store.")
	flagSet.StringVar(&cfg.Save, "save", "", "Save the build to the store under this name.")
	flagSet.StringVar(&cfg.Load, "load", "", "Load the build saved under this name instead of a workspace file.")
	logFormat := flagSet.String("log-format", "auto", "Log output format. Options: 'auto', 'text' or 'json'.")
	logLevel := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.Func("var", "Workspace variable as key=value. May be repeated.", func(s string) error {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return fmt.Errorf("expected key=value, got %q", s)
		}
		cfg.Vars[k] = v
		return nil
	})
	flagSet.Func("module-path", "Directory searched by load(). May be repeated.", func(s string) error {
		cfg.ModulePaths = append(cfg.ModulePaths, s)
		return nil
	})

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() > 0 {
		cfg.WorkspacePath = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "only one workspace path may be given"}
	}
	switch {
	case cfg.WorkspacePath == "" && cfg.Load == "":
		flagSet.Usage()
		return nil, true, nil
	case cfg.WorkspacePath != "" && cfg.Load != "":
		return nil, false, &ExitError{Code: 2, Message: "a workspace path and -load cannot be used together"}
	}

	switch f := strings.ToLower(*logFormat); f {
	case "auto":
		cfg.LogFormat = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			cfg.LogFormat = "text"
		}
	case "text", "json":
		cfg.LogFormat = f
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'auto', 'text' or 'json'"}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return cfg, false, nil
}

// LogHandler returns the handler selected by the config, writing to w.
func (c *Config) LogHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
