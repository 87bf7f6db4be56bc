package workspace

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scripttree/module"
	"github.com/robbyt/go-scripttree/source"
	"github.com/zclconf/go-cty/cty"
)

// Option configures workspace decoding.
type Option func(*config) error

type config struct {
	vars          map[string]cty.Value
	httpOptions   *source.HTTPOptions
	moduleOptions []module.Option
	logHandler    slog.Handler
	logger        *slog.Logger
}

// WithVariable makes value available to expressions as var.<name>.
func WithVariable(name string, value cty.Value) Option {
	return func(c *config) error {
		if name == "" {
			return fmt.Errorf("variable name cannot be empty")
		}
		if c.vars == nil {
			c.vars = make(map[string]cty.Value)
		}
		c.vars[name] = value
		return nil
	}
}

// WithStringVariables adds every entry of vars as a string variable.
func WithStringVariables(vars map[string]string) Option {
	return func(c *config) error {
		for k, v := range vars {
			if err := WithVariable(k, cty.StringVal(v))(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithHTTPOptions configures the loader used for source_url.
func WithHTTPOptions(opts *source.HTTPOptions) Option {
	return func(c *config) error {
		if opts == nil {
			return fmt.Errorf("http options cannot be nil")
		}
		c.httpOptions = opts
		return nil
	}
}

// WithModuleOptions passes opts to the build and to every module created.
func WithModuleOptions(opts ...module.Option) Option {
	return func(c *config) error {
		c.moduleOptions = append(c.moduleOptions, opts...)
		return nil
	}
}

// WithLogHandler creates an option to set the log handler.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *config) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.logHandler = nil
		return nil
	}
}
