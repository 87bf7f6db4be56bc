package module

import (
	"fmt"
	"log/slog"
)

// Option is a function that configures a ScriptModule or a Build.
type Option func(*config) error

type config struct {
	isolated     bool
	friendlyName string
	flavor       Flavor
	source       string
	logHandler   slog.Handler
	logger       *slog.Logger
}

// WithIsolatedEnvironment gives the module a private environment instead of
// the engine's shared one. The choice is fixed for the module's lifetime.
func WithIsolatedEnvironment() Option {
	return func(c *config) error {
		c.isolated = true
		return nil
	}
}

// WithFriendlyName overrides the diagnostic label, which defaults to
// "<name>_<codeType>".
func WithFriendlyName(name string) Option {
	return func(c *config) error {
		if name == "" {
			return fmt.Errorf("friendly name cannot be empty")
		}
		c.friendlyName = name
		return nil
	}
}

// WithFlavor selects how the module prepares and persists its source.
func WithFlavor(f Flavor) Option {
	return func(c *config) error {
		if f == nil {
			return fmt.Errorf("flavor cannot be nil")
		}
		c.flavor = f
		return nil
	}
}

// WithSource sets the initial source text.
func WithSource(src string) Option {
	return func(c *config) error {
		c.source = src
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

func newConfig(opts []Option) (*config, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	if cfg.flavor == nil {
		cfg.flavor = PlainFlavor{}
	}
	return cfg, nil
}
