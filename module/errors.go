package module

import (
	"errors"
	"fmt"

	"github.com/robbyt/go-scripttree/engine"
)

var (
	ErrNotCompiled     = errors.New("the module is not compiled yet")
	ErrInvalidCallable = errors.New("value is not a callable")
	ErrCycle           = errors.New("module tree contains a cycle")
	ErrModuleNotFound  = errors.New("module not found")
	ErrNilEngine       = errors.New("engine is nil")
	ErrEmptyName       = errors.New("module name is empty")
	ErrUnknownFlavor   = errors.New("unknown module flavor")
	ErrPanic           = errors.New("unhandled panic")
)

// CompileError is a compilation failure attributed to a module. A failing
// child aborts its parents' compile with the child's CompileError unchanged.
type CompileError struct {
	Module string
	Err    error
}

func (e *CompileError) Error() string {
	if engine.IsSyntaxError(e.Err) {
		return fmt.Sprintf("Syntax Error: %s - [%s]", e.Module, e.Err)
	}
	return fmt.Sprintf("%s - %s", e.Module, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
