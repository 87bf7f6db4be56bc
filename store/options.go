package store

import (
	"fmt"
	"log/slog"
)

// Option configures a Store.
type Option func(*config) error

type config struct {
	logHandler slog.Handler
	logger     *slog.Logger
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
