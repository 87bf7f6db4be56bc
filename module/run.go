package module

import (
	"context"
	"fmt"
	"strings"
)

// Run invokes the module's own funcs in order, then its diagnostic
// expressions, and returns the last value produced by an own func. Failing
// funcs are logged and skipped. An uncompiled module returns ErrNotCompiled
// and a nil value.
func (m *ScriptModule) Run(ctx context.Context) (any, error) {
	return m.RunTo(ctx, "")
}

// RunTo is Run, except that when stopBefore names a module, it invokes only
// the funcs that precede the first func owned by that module and skips the
// diagnostic expressions. The name is compared case-insensitively; a name
// that owns no func runs the whole list.
func (m *ScriptModule) RunTo(ctx context.Context, stopBefore string) (any, error) {
	result, pending, err := m.runTo(ctx, stopBefore)
	notifyAll(pending)
	return result, err
}

func (m *ScriptModule) runTo(ctx context.Context, stopBefore string) (result any, pending []change, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "Run aborted", "error", r)
			result, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if !m.IsCompiled() {
		m.logger.ErrorContext(ctx, "Run refused", "error", ErrNotCompiled)
		return nil, nil, fmt.Errorf("%w: %s", ErrNotCompiled, m.name)
	}

	for _, f := range prefix(m.funcs, stopBefore) {
		if err := ctx.Err(); err != nil {
			return result, pending, err
		}
		v, ok, ch := f.invoke(ctx)
		if ok {
			result = v
		}
		pending = append(pending, ch)
	}
	if stopBefore != "" {
		return result, pending, nil
	}

	for _, d := range m.diagnostics {
		if err := ctx.Err(); err != nil {
			return result, pending, err
		}
		_, _, ch := d.invoke(ctx)
		pending = append(pending, ch)
	}
	return result, pending, nil
}

// RunLibrary invokes the library funcs in order.
func (m *ScriptModule) RunLibrary(ctx context.Context) error {
	return m.RunLibraryTo(ctx, "")
}

// RunLibraryTo invokes the library funcs that precede the first one owned by
// stopBefore.
func (m *ScriptModule) RunLibraryTo(ctx context.Context, stopBefore string) error {
	pending, err := m.runLibraryTo(ctx, stopBefore)
	notifyAll(pending)
	return err
}

func (m *ScriptModule) runLibraryTo(ctx context.Context, stopBefore string) (pending []change, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "Library run aborted", "error", r)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if !m.IsCompiled() {
		m.logger.ErrorContext(ctx, "Library run refused", "error", ErrNotCompiled)
		return nil, fmt.Errorf("%w: %s", ErrNotCompiled, m.name)
	}

	for _, f := range prefix(m.libraryFuncs, stopBefore) {
		if err := ctx.Err(); err != nil {
			return pending, err
		}
		_, _, ch := f.invoke(ctx)
		pending = append(pending, ch)
	}
	return pending, nil
}

// prefix returns the funcs before the first one owned by stopBefore.
func prefix(funcs []*FuncNode, stopBefore string) []*FuncNode {
	if stopBefore == "" {
		return funcs
	}
	for i, f := range funcs {
		if strings.EqualFold(f.ModuleName(), stopBefore) {
			return funcs[:i]
		}
	}
	return funcs
}
