package mocks

import (
	"context"

	"github.com/robbyt/go-scripttree/engine"
	"github.com/stretchr/testify/mock"
)

// Engine is a mock implementation of engine.Engine for testing purposes.
type Engine struct {
	mock.Mock
}

var _ engine.Engine = (*Engine)(nil)

// Globals is a mock implementation of the Globals method.
func (m *Engine) Globals() engine.Environment {
	args := m.Called()
	env, _ := args.Get(0).(engine.Environment)
	return env
}

// NewEnvironment is a mock implementation of the NewEnvironment method.
func (m *Engine) NewEnvironment() engine.Environment {
	args := m.Called()
	env, _ := args.Get(0).(engine.Environment)
	return env
}

// Load is a mock implementation of the Load method.
func (m *Engine) Load(chunk engine.Chunk, env engine.Environment) (engine.Callable, error) {
	args := m.Called(chunk, env)
	c, _ := args.Get(0).(engine.Callable)
	return c, args.Error(1)
}

// Invoke is a mock implementation of the Invoke method.
func (m *Engine) Invoke(ctx context.Context, c engine.Callable) (any, error) {
	args := m.Called(ctx, c)
	return args.Get(0), args.Error(1)
}

// RegisterOnce is a mock implementation of the RegisterOnce method.
func (m *Engine) RegisterOnce(ctx context.Context, source string, env engine.Environment) error {
	args := m.Called(ctx, source, env)
	return args.Error(0)
}

// CompileExpression is a mock implementation of the CompileExpression method.
func (m *Engine) CompileExpression(expr string, env engine.Environment) (engine.Expression, error) {
	args := m.Called(expr, env)
	x, _ := args.Get(0).(engine.Expression)
	return x, args.Error(1)
}

// CompileConstExpression is a mock implementation of the CompileConstExpression method.
func (m *Engine) CompileConstExpression(expr string, constant any) (engine.Expression, error) {
	args := m.Called(expr, constant)
	x, _ := args.Get(0).(engine.Expression)
	return x, args.Error(1)
}
