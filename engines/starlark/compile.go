package starlark

import (
	"errors"
	"fmt"

	"github.com/robbyt/go-scripttree/engine"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Result slots read after a file chunk runs. "_" holds the last value a
// script wants to hand back; "result" is accepted as an explicit name.
const (
	resultGlobal         = "_"
	explicitResultGlobal = "result"
)

// lateBound treats every free identifier as predeclared. Lookup happens when
// the chunk runs, against whatever the environment holds at that moment, so
// a module may reference names a library defines before the library ran.
func lateBound(string) bool { return true }

// compileFile parses and compiles a file chunk into a starlark program.
func compileFile(opts *syntax.FileOptions, chunk engine.Chunk) (*starlarkLib.Program, error) {
	f, err := opts.Parse(chunk.FriendlyName, chunk.Source, 0)
	if err != nil {
		return nil, syntaxError(chunk.FriendlyName, err)
	}

	prog, err := starlarkLib.FileProgram(f, lateBound)
	if err != nil {
		return nil, syntaxError(chunk.FriendlyName, err)
	}
	return prog, nil
}

// checkExpression validates an expression chunk without evaluating it.
func checkExpression(opts *syntax.FileOptions, friendlyName, expr string) error {
	if _, err := opts.ParseExpr(friendlyName, expr, 0); err != nil {
		return syntaxError(friendlyName, err)
	}
	return nil
}

func syntaxError(friendlyName string, err error) *engine.SyntaxError {
	return &engine.SyntaxError{
		FriendlyName: friendlyName,
		Msg:          err.Error(),
		Err:          err,
	}
}

// runtimeError decorates an evaluation failure with the position of the
// innermost frame.
func runtimeError(friendlyName string, err error) *engine.RuntimeError {
	msg := err.Error()
	var evalErr *starlarkLib.EvalError
	if errors.As(err, &evalErr) && len(evalErr.CallStack) > 0 {
		msg = fmt.Sprintf("%s: %s", evalErr.CallStack.At(0).Pos, evalErr.Msg)
	}
	return &engine.RuntimeError{
		FriendlyName: friendlyName,
		Msg:          msg,
		Err:          err,
	}
}

// resultOf picks the value a finished file chunk hands back.
func resultOf(globals starlarkLib.StringDict) starlarkLib.Value {
	if v, ok := globals[resultGlobal]; ok && v != nil {
		return v
	}
	if v, ok := globals[explicitResultGlobal]; ok && v != nil {
		return v
	}
	return starlarkLib.None
}
