package engine

import (
	"context"
)

// ChunkKind tells an Engine how to interpret the source of a Chunk.
type ChunkKind int

const (
	// FileChunk is a sequence of statements. Its result is engine specific.
	FileChunk ChunkKind = iota

	// ExpressionChunk is a single expression whose value is the result.
	ExpressionChunk
)

func (k ChunkKind) String() string {
	switch k {
	case FileChunk:
		return "file"
	case ExpressionChunk:
		return "expression"
	default:
		return "unknown"
	}
}

// Chunk is a unit of source text handed to an Engine for loading.
type Chunk struct {
	// Source is the script text.
	Source string

	// FriendlyName labels the chunk in engine diagnostics and backtraces.
	FriendlyName string

	// Module is the name of the module that owns the chunk. Engines keep it
	// with the resulting Callable so the owner can be found from the handle.
	Module string

	Kind ChunkKind
}

// Engine is the embedded evaluation engine that modules compile against. The
// engine owns the meaning of source text; callers only see opaque callables.
type Engine interface {
	// Globals returns the environment shared by every module that does not
	// ask for an isolated one. The same value is returned on every call.
	Globals() Environment

	// NewEnvironment allocates a private environment.
	NewEnvironment() Environment

	// Load turns a chunk into a callable bound to env. Malformed source is
	// reported as a *SyntaxError, other engine faults as a *RuntimeError.
	Load(chunk Chunk, env Environment) (Callable, error)

	// Invoke calls a callable created by this engine with no arguments.
	Invoke(ctx context.Context, c Callable) (any, error)

	// RegisterOnce runs source directly against env without retaining a
	// callable. Meant for one-time setup code.
	RegisterOnce(ctx context.Context, source string, env Environment) error

	// CompileExpression compiles an expression evaluated against env.
	CompileExpression(expr string, env Environment) (Expression, error)

	// CompileConstExpression returns an expression that always evaluates to
	// constant. The expression text is only validated and kept for display.
	CompileConstExpression(expr string, constant any) (Expression, error)
}

// Environment is a variable table owned by an Engine.
type Environment interface {
	// Get returns the Go representation of a variable.
	Get(name string) (any, bool)

	// Set converts v into an engine value and stores it.
	Set(name string, v any) error

	// Names returns the sorted variable names.
	Names() []string
}

// Callable is an opaque compiled unit.
type Callable interface {
	// Module returns the name of the module that loaded the callable.
	Module() string

	// FriendlyName returns the chunk label used while loading.
	FriendlyName() string
}

// Expression is an evaluable handle, distinct from a full Callable.
type Expression interface {
	Source() string
	Eval(ctx context.Context) (any, error)
}
