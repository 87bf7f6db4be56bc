// Package scripttree compiles and runs trees of script modules. A build holds
// a library tree, compiled ahead of and run before every program module, and
// the program modules themselves. Compiling a module orders its subtree
// children first, so dependencies always run before the code that uses them.
//
// The functions here bind builds to the Starlark engine. The module package
// works with any engine.Engine.
package scripttree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scripttree/engines/starlark"
	"github.com/robbyt/go-scripttree/module"
	"github.com/robbyt/go-scripttree/store"
	"github.com/robbyt/go-scripttree/workspace"
)

// Option configures a Session.
type Option func(*config) error

type config struct {
	engineOptions    []starlark.FunctionalOption
	moduleOptions    []module.Option
	workspaceOptions []workspace.Option
}

// WithLogHandler sends engine, module and workspace logs to handler.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *config) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.engineOptions = append(c.engineOptions, starlark.WithLogHandler(handler))
		c.moduleOptions = append(c.moduleOptions, module.WithLogHandler(handler))
		c.workspaceOptions = append(c.workspaceOptions, workspace.WithLogHandler(handler))
		return nil
	}
}

// WithEngineOptions passes opts to the Starlark engine.
func WithEngineOptions(opts ...starlark.FunctionalOption) Option {
	return func(c *config) error {
		c.engineOptions = append(c.engineOptions, opts...)
		return nil
	}
}

// WithModuleOptions passes opts to the build and every module the session
// creates.
func WithModuleOptions(opts ...module.Option) Option {
	return func(c *config) error {
		c.moduleOptions = append(c.moduleOptions, opts...)
		return nil
	}
}

// WithWorkspaceOptions passes opts to workspace decoding.
func WithWorkspaceOptions(opts ...workspace.Option) Option {
	return func(c *config) error {
		c.workspaceOptions = append(c.workspaceOptions, opts...)
		return nil
	}
}

// Session is a build together with the engine its modules are bound to.
type Session struct {
	Engine *starlark.Engine
	Build  *module.Build

	moduleOptions []module.Option
}

func newSession(opts []Option) (*Session, *config, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	eng, err := starlark.New(cfg.engineOptions...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return &Session{Engine: eng, moduleOptions: cfg.moduleOptions}, cfg, nil
}

// NewStarlarkSession creates an empty build named name.
func NewStarlarkSession(name string, opts ...Option) (*Session, error) {
	s, cfg, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	if s.Build, err = module.NewBuild(name, cfg.moduleOptions...); err != nil {
		return nil, err
	}
	return s, nil
}

// FromWorkspaceFile decodes the HCL workspace at path.
func FromWorkspaceFile(ctx context.Context, path string, opts ...Option) (*Session, error) {
	s, cfg, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	wopts := append([]workspace.Option{workspace.WithModuleOptions(cfg.moduleOptions...)}, cfg.workspaceOptions...)
	if s.Build, err = workspace.LoadFile(ctx, path, s.Engine, wopts...); err != nil {
		return nil, err
	}
	return s, nil
}

// FromWorkspaceSource decodes an HCL workspace held in memory. filename
// names the build and anchors relative source_file paths.
func FromWorkspaceSource(ctx context.Context, filename string, src []byte, opts ...Option) (*Session, error) {
	s, cfg, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	wopts := append([]workspace.Option{workspace.WithModuleOptions(cfg.moduleOptions...)}, cfg.workspaceOptions...)
	if s.Build, err = workspace.Decode(ctx, filename, src, s.Engine, wopts...); err != nil {
		return nil, err
	}
	return s, nil
}

// FromStore loads the workspace saved under name.
func FromStore(ctx context.Context, st *store.Store, name string, opts ...Option) (*Session, error) {
	s, cfg, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	if s.Build, err = st.Load(ctx, name, s.Engine, cfg.moduleOptions...); err != nil {
		return nil, err
	}
	return s, nil
}

// NewModule creates a module bound to the session engine. It is not added to
// any tree.
func (s *Session) NewModule(name, src string, opts ...module.Option) (*module.ScriptModule, error) {
	all := append(append([]module.Option{module.WithSource(src)}, s.moduleOptions...), opts...)
	return module.NewScriptModule(s.Engine, name, 0, all...)
}

// Run compiles every program module and runs the named one.
func (s *Session) Run(ctx context.Context, name string) (any, error) {
	if err := s.Build.CompileAll(); err != nil {
		return nil, err
	}
	return s.Build.Run(ctx, name)
}

// RunAll compiles every program module and runs them all in order.
func (s *Session) RunAll(ctx context.Context) (map[string]any, error) {
	if err := s.Build.CompileAll(); err != nil {
		return nil, err
	}
	return s.Build.RunAll(ctx)
}
