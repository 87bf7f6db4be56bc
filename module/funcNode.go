package module

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/robbyt/go-scripttree/engine"
)

// FuncNode wraps one compiled callable and remembers the value it last
// produced. Invoke never propagates failures: a failing step is logged on the
// owning module's logger and recorded in Err.
type FuncNode struct {
	callable engine.Callable
	module   *ScriptModule

	mu        sync.Mutex
	value     any
	err       error
	listeners []func(old, new any)
}

func newFuncNode(c engine.Callable, owner *ScriptModule) (*FuncNode, error) {
	if isNil(c) {
		return nil, fmt.Errorf("%w: %T", ErrInvalidCallable, c)
	}
	return &FuncNode{callable: c, module: owner}, nil
}

func (f *FuncNode) String() string {
	return fmt.Sprintf("module.FuncNode{%s}", f.callable.FriendlyName())
}

// Callable returns the engine handle.
func (f *FuncNode) Callable() engine.Callable { return f.callable }

// Module returns the module whose compile produced the node.
func (f *FuncNode) Module() *ScriptModule { return f.module }

// ModuleName is the name recorded by the engine when the callable was loaded.
func (f *FuncNode) ModuleName() string { return f.callable.Module() }

// Value returns the result of the most recent successful invocation.
func (f *FuncNode) Value() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Err returns the failure of the most recent invocation, or nil.
func (f *FuncNode) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// OnChange registers fn to be called after an invocation stores a value that
// differs from the previous one. During a module run, listeners are called
// once the run has finished and released the module, so fn may call back
// into the module.
func (f *FuncNode) OnChange(fn func(old, new any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// change is a value change waiting to be delivered to listeners.
type change struct {
	listeners []func(old, new any)
	old, new  any
}

func (c change) notify() {
	for _, fn := range c.listeners {
		fn(c.old, c.new)
	}
}

func notifyAll(pending []change) {
	for _, c := range pending {
		c.notify()
	}
}

// Invoke calls the callable with no arguments and caches the result.
func (f *FuncNode) Invoke(ctx context.Context) {
	_, _, ch := f.invoke(ctx)
	ch.notify()
}

// invoke reports the produced value, whether the call succeeded, and the
// change the caller must deliver.
func (f *FuncNode) invoke(ctx context.Context) (any, bool, change) {
	value, err := f.call(ctx)
	if err != nil {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()

		f.module.logger.ErrorContext(ctx, "Invocation failed",
			"friendlyName", f.callable.FriendlyName(),
			"error", err,
		)
		return nil, false, change{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	old := f.value
	f.value = value
	f.err = nil
	if reflect.DeepEqual(old, value) || len(f.listeners) == 0 {
		return value, true, change{}
	}
	return value, true, change{listeners: slices.Clone(f.listeners), old: old, new: value}
}

func (f *FuncNode) call(ctx context.Context) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return f.module.eng.Invoke(ctx, f.callable)
}

// isNil reports whether v is nil or an interface holding a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
