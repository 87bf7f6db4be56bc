package starlark

import (
	"context"

	"github.com/robbyt/go-scripttree/engine"
	starlarkLib "go.starlark.net/starlark"
)

// callable is a loaded chunk bound to an environment.
type callable struct {
	owner        *Engine
	kind         engine.ChunkKind
	module       string
	friendlyName string
	source       string
	env          *Environment

	// prog is set for file chunks only
	prog *starlarkLib.Program
}

func (c *callable) Module() string       { return c.module }
func (c *callable) FriendlyName() string { return c.friendlyName }

func (c *callable) String() string {
	return "starlark.callable{" + c.friendlyName + "}"
}

type expression struct {
	owner    *Engine
	callable *callable
}

func (x *expression) Source() string { return x.callable.source }

func (x *expression) Eval(ctx context.Context) (any, error) {
	return x.owner.Invoke(ctx, x.callable)
}

type constExpression struct {
	source string
	value  any
}

func (x *constExpression) Source() string { return x.source }

func (x *constExpression) Eval(context.Context) (any, error) {
	return x.value, nil
}
