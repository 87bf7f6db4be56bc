package starlark

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/robbyt/go-scripttree/engine"
	"github.com/robbyt/go-scripttree/internal/helpers"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Engine runs module code on the Starlark interpreter.
type Engine struct {
	// universe holds the predeclared builtins and modules, plus any values
	// supplied with WithGlobals.
	universe    starlarkLib.StringDict
	globals     *Environment
	fileOptions *syntax.FileOptions
	modulePaths []string
	print       PrintFunc

	loadMu sync.Mutex
	loaded map[string]*loadEntry

	logHandler slog.Handler
	logger     *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates a Starlark engine with the provided options.
func New(opts ...FunctionalOption) (*Engine, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying engine option: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	var handler slog.Handler
	var logger *slog.Logger
	if cfg.logger != nil {
		logger = cfg.logger
		handler = logger.Handler()
	} else {
		handler, logger = helpers.SetupLogger(cfg.logHandler, "starlark", "Engine")
	}

	universe := standardModules()
	for k, v := range cfg.globals {
		sv, err := fromGo(v)
		if err != nil {
			return nil, fmt.Errorf("failed to convert global %q: %w", k, err)
		}
		universe[k] = sv
	}
	universe.Freeze()

	return &Engine{
		universe:    universe,
		globals:     newEnvironment(),
		fileOptions: cfg.fileOptions,
		modulePaths: cfg.modulePaths,
		print:       cfg.print,
		loaded:      make(map[string]*loadEntry),
		logHandler:  handler,
		logger:      logger,
	}, nil
}

func (e *Engine) String() string {
	return "starlark.Engine"
}

// Globals returns the environment shared by non-isolated modules.
func (e *Engine) Globals() engine.Environment {
	return e.globals
}

// NewEnvironment allocates a private environment.
func (e *Engine) NewEnvironment() engine.Environment {
	return newEnvironment()
}

// Load compiles a chunk against env. File chunks are compiled to a program
// now; expression chunks are only validated and are re-evaluated from source
// on each invocation.
func (e *Engine) Load(chunk engine.Chunk, env engine.Environment) (engine.Callable, error) {
	logger := e.logger.WithGroup("Load").With("module", chunk.Module, "chunk", chunk.FriendlyName)

	senv, err := e.environment(env)
	if err != nil {
		return nil, err
	}

	c := &callable{
		owner:        e,
		kind:         chunk.Kind,
		module:       chunk.Module,
		friendlyName: chunk.FriendlyName,
		source:       chunk.Source,
		env:          senv,
	}

	switch chunk.Kind {
	case engine.FileChunk:
		prog, err := compileFile(e.fileOptions, chunk)
		if err != nil {
			logger.Debug("compilation failed", "error", err)
			return nil, err
		}
		c.prog = prog
	case engine.ExpressionChunk:
		if err := checkExpression(e.fileOptions, chunk.FriendlyName, chunk.Source); err != nil {
			logger.Debug("expression rejected", "error", err)
			return nil, err
		}
	default:
		return nil, &engine.RuntimeError{
			FriendlyName: chunk.FriendlyName,
			Msg:          fmt.Sprintf("unsupported chunk kind %s", chunk.Kind),
		}
	}

	logger.Debug("chunk loaded", "kind", chunk.Kind.String())
	return c, nil
}

// Invoke runs a callable created by this engine. The starlark thread is
// cancelled when ctx is done.
func (e *Engine) Invoke(ctx context.Context, c engine.Callable) (any, error) {
	sc, ok := c.(*callable)
	if !ok || sc == nil || sc.owner != e {
		return nil, fmt.Errorf("%w: %T", engine.ErrInvalidCallable, c)
	}

	v, err := e.exec(ctx, sc)
	if err != nil {
		return nil, err
	}
	return toGo(v), nil
}

// exec runs the callable and returns its raw result.
func (e *Engine) exec(ctx context.Context, c *callable) (starlarkLib.Value, error) {
	logger := e.logger.WithGroup("exec").With("module", c.module, "chunk", c.friendlyName)

	thread, done := e.newThread(ctx, c.module, c.friendlyName)
	defer done()

	startTime := time.Now()
	predeclared := c.env.predeclared(e.universe)

	var result starlarkLib.Value
	var err error
	switch c.kind {
	case engine.ExpressionChunk:
		result, err = starlarkLib.EvalOptions(e.fileOptions, thread, c.friendlyName, c.source, predeclared)
	default:
		var globals starlarkLib.StringDict
		globals, err = c.prog.Init(thread, predeclared)
		if globals != nil {
			// definitions made before a failure stay visible, as they would
			// in any interpreter sharing a global table
			c.env.merge(globals)
		}
		if err == nil {
			result = resultOf(globals)
		}
	}
	logger.Debug("exec complete", "duration", time.Since(startTime), "error", err)

	if err != nil {
		return nil, runtimeError(c.friendlyName, err)
	}
	return result, nil
}

// RegisterOnce runs source against env without retaining the compiled form.
func (e *Engine) RegisterOnce(ctx context.Context, source string, env engine.Environment) error {
	c, err := e.Load(engine.Chunk{Source: source, FriendlyName: "register"}, env)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, c.(*callable))
	return err
}

// CompileExpression validates expr and binds it to env.
func (e *Engine) CompileExpression(expr string, env engine.Environment) (engine.Expression, error) {
	c, err := e.Load(engine.Chunk{Source: expr, FriendlyName: "expr", Kind: engine.ExpressionChunk}, env)
	if err != nil {
		return nil, err
	}
	return &expression{owner: e, callable: c.(*callable)}, nil
}

// CompileConstExpression validates expr and returns an expression that
// always yields constant.
func (e *Engine) CompileConstExpression(expr string, constant any) (engine.Expression, error) {
	if err := checkExpression(e.fileOptions, "expr", expr); err != nil {
		return nil, err
	}
	return &constExpression{source: expr, value: constant}, nil
}

// Universe returns a copy of the predeclared names every chunk can see.
func (e *Engine) Universe() starlarkLib.StringDict {
	return maps.Clone(e.universe)
}

func (e *Engine) environment(env engine.Environment) (*Environment, error) {
	if env == nil {
		return e.globals, nil
	}
	senv, ok := env.(*Environment)
	if !ok || senv == nil {
		return nil, fmt.Errorf("%w: %T", ErrInvalidEnvironment, env)
	}
	return senv, nil
}

// newThread creates a thread that prints to the logger, resolves load()
// through the module paths and carries the owning module name. The returned
// func releases the cancellation hook.
func (e *Engine) newThread(ctx context.Context, module, name string) (*starlarkLib.Thread, func()) {
	thread := &starlarkLib.Thread{
		Name: name,
		Print: func(thread *starlarkLib.Thread, msg string) {
			if e.print != nil {
				e.print(module, msg)
				return
			}
			e.logger.InfoContext(ctx, msg, "starlark-thread", thread.Name, "module", module)
		},
		Load: e.load,
	}
	thread.SetLocal(threadLocalModule, module)

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	return thread, func() { stop() }
}
