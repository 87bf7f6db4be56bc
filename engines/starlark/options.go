package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.starlark.net/syntax"
)

// PrintFunc receives the output of the starlark print() builtin, along with
// the name of the module whose code called it.
type PrintFunc func(module, msg string)

// FunctionalOption is a function that configures an Engine.
type FunctionalOption func(*config) error

type config struct {
	globals     map[string]any
	modulePaths []string
	print       PrintFunc
	fileOptions *syntax.FileOptions
	logHandler  slog.Handler
	logger      *slog.Logger
}

// WithGlobals adds predeclared values visible to every module. Values are
// converted with the same rules as Environment.Set.
func WithGlobals(globals map[string]any) FunctionalOption {
	return func(c *config) error {
		if c.globals == nil {
			c.globals = make(map[string]any, len(globals))
		}
		for k, v := range globals {
			c.globals[k] = v
		}
		return nil
	}
}

// WithModulePaths sets the directories searched by the starlark load()
// statement, in order.
func WithModulePaths(paths ...string) FunctionalOption {
	return func(c *config) error {
		for _, p := range paths {
			if p == "" {
				return fmt.Errorf("module path cannot be empty")
			}
			c.modulePaths = append(c.modulePaths, filepath.Clean(p))
		}
		return nil
	}
}

// WithPrintFunc routes print() output to fn instead of the logger.
func WithPrintFunc(fn PrintFunc) FunctionalOption {
	return func(c *config) error {
		if fn == nil {
			return fmt.Errorf("print func cannot be nil")
		}
		c.print = fn
		return nil
	}
}

// WithFileOptions replaces the dialect options used to parse every chunk.
func WithFileOptions(opts *syntax.FileOptions) FunctionalOption {
	return func(c *config) error {
		if opts == nil {
			return fmt.Errorf("file options cannot be nil")
		}
		c.fileOptions = opts
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for the engine.
// This is the preferred option for logging configuration as it provides
// more flexibility through the slog.Handler interface.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(c *config) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		// Clear logger if handler is explicitly set
		c.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for the engine.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		// Clear handler if logger is explicitly set
		c.logHandler = nil
		return nil
	}
}

// defaultFileOptions enables the dialect features module code relies on:
// top-level if/for, reassigning globals across statements, while loops,
// sets and recursion.
func defaultFileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}
}

func (c *config) applyDefaults() {
	if c.logHandler == nil && c.logger == nil {
		c.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	if c.fileOptions == nil {
		c.fileOptions = defaultFileOptions()
	}
}

func (c *config) validate() error {
	if c.logHandler == nil && c.logger == nil {
		return fmt.Errorf("either log handler or logger must be specified")
	}
	for _, p := range c.modulePaths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("module path %q: %w", p, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("module path %q is not a directory", p)
		}
	}
	return nil
}
