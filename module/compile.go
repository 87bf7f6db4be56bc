package module

import (
	"fmt"

	"github.com/robbyt/go-scripttree/engine"
)

// snapshot holds the versions of every tree a compile visited.
type snapshot struct {
	versions map[*Tree]uint64
}

func (s *snapshot) fresh() bool {
	for t, v := range s.versions {
		if t.version.Load() != v {
			return false
		}
	}
	return true
}

// compilation accumulates the funcs of one Compile call.
type compilation struct {
	target *ScriptModule
	funcs  []*FuncNode

	// path holds the modules on the current descent, for cycle detection.
	path     map[*ScriptModule]struct{}
	versions map[*Tree]uint64
}

func newCompilation(target *ScriptModule) *compilation {
	return &compilation{
		target:   target,
		path:     map[*ScriptModule]struct{}{target: {}},
		versions: make(map[*Tree]uint64),
	}
}

func (c *compilation) record(t *Tree) {
	if _, ok := c.versions[t]; !ok {
		c.versions[t] = t.version.Load()
	}
}

func (c *compilation) enter(m *ScriptModule) error {
	if _, ok := c.path[m]; ok {
		return &CompileError{Module: m.name, Err: ErrCycle}
	}
	c.path[m] = struct{}{}
	return nil
}

func (c *compilation) leave(m *ScriptModule) {
	delete(c.path, m)
}

// take returns the accumulated funcs and starts a new list.
func (c *compilation) take() []*FuncNode {
	fs := c.funcs
	c.funcs = nil
	return fs
}

// load compiles the source of m against the target's environment and
// appends the result.
func (c *compilation) load(m *ScriptModule) error {
	chunk := engine.Chunk{
		Source:       m.flavor.ManageCode(m.Source()),
		FriendlyName: m.friendlyName,
		Module:       m.name,
		Kind:         m.flavor.Kind(),
	}
	callable, err := m.eng.Load(chunk, c.target.env)
	if err != nil {
		return &CompileError{Module: m.name, Err: err}
	}
	f, err := newFuncNode(callable, m)
	if err != nil {
		return &CompileError{Module: m.name, Err: err}
	}
	c.funcs = append(c.funcs, f)
	return nil
}

// Compile builds the module's FuncNode lists. When library is not nil, its
// modules are compiled first into LibraryFuncs, post-order. Then the
// module's own subtree is compiled post-order into Funcs, so every child's
// func precedes its parent's. Every func is bound to this module's
// environment. Any failure leaves the module Uncompiled and is returned as a
// *CompileError naming the failing module.
func (m *ScriptModule) Compile(library Node) error {
	m.mu.Lock()
	m.compiling.Store(true)
	err := m.compileLocked(library)
	m.compiling.Store(false)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("Compile failed", "error", err)
		return err
	}
	m.logger.Debug("Compiled")
	m.emit(EventCompiled)
	return nil
}

func (m *ScriptModule) compileLocked(library Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.resetLocked()
			err = &CompileError{Module: m.name, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	m.resetLocked()
	if err := checkCycles(m, make(map[*ScriptModule]struct{}), make(map[*ScriptModule]struct{})); err != nil {
		return err
	}
	c := newCompilation(m)

	var libraryFuncs []*FuncNode
	if !isNil(library) {
		if err := library.contributeLibrary(c); err != nil {
			return err
		}
		libraryFuncs = c.take()
	}

	if err := m.compileSubtree(c); err != nil {
		return err
	}

	m.libraryFuncs = libraryFuncs
	m.funcs = c.take()
	m.snapshot.Store(&snapshot{versions: c.versions})
	return nil
}

// checkCycles walks m's subtree without taking any module lock and fails on
// the first module reached again along one path. Two modules compiling as
// each other's children would otherwise wait on each other's lock.
func checkCycles(m *ScriptModule, path, done map[*ScriptModule]struct{}) error {
	if _, ok := path[m]; ok {
		return &CompileError{Module: m.name, Err: ErrCycle}
	}
	if _, ok := done[m]; ok {
		return nil
	}
	path[m] = struct{}{}
	defer delete(path, m)
	for _, child := range m.Modules() {
		if err := checkCycles(child, path, done); err != nil {
			return err
		}
	}
	done[m] = struct{}{}
	return nil
}

// compileSubtree appends the funcs of m's children, then m's own. The
// caller holds m.mu.
func (m *ScriptModule) compileSubtree(c *compilation) error {
	c.record(&m.Tree)
	for _, child := range m.Modules() {
		if err := child.compileAsChild(c); err != nil {
			return err
		}
	}
	return c.load(m)
}

// compileAsChild locks m beneath its parent for the duration of its subtree
// compile.
func (m *ScriptModule) compileAsChild(c *compilation) error {
	if err := c.enter(m); err != nil {
		return err
	}
	defer c.leave(m)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compileSubtree(c)
}

// contributeLibrary appends the library funcs of m's subtree, post-order.
// Library modules are read without taking their lock, so a module compiling
// as a program never waits on its own library.
func (m *ScriptModule) contributeLibrary(c *compilation) error {
	if err := c.enter(m); err != nil {
		return err
	}
	defer c.leave(m)

	c.record(&m.Tree)
	for _, child := range m.Modules() {
		if err := child.contributeLibrary(c); err != nil {
			return err
		}
	}
	return c.load(m)
}
