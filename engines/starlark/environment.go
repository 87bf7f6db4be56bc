package starlark

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	starlarkLib "go.starlark.net/starlark"
)

// Environment is a mutable table of starlark globals. Module chunks read it
// as their predeclared names and write their top-level definitions back to
// it after running.
type Environment struct {
	mu   sync.RWMutex
	vars starlarkLib.StringDict
}

func newEnvironment() *Environment {
	return &Environment{vars: make(starlarkLib.StringDict)}
}

// Get returns the Go representation of a variable.
func (env *Environment) Get(name string) (any, bool) {
	v, ok := env.Value(name)
	if !ok {
		return nil, false
	}
	return toGo(v), true
}

// Value returns the raw starlark value of a variable.
func (env *Environment) Value(name string) (starlarkLib.Value, bool) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	v, ok := env.vars[name]
	return v, ok
}

// Set converts v to a starlark value and stores it under name.
func (env *Environment) Set(name string, v any) error {
	sv, err := fromGo(v)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", name, err)
	}
	env.mu.Lock()
	defer env.mu.Unlock()
	env.vars[name] = sv
	return nil
}

// Names returns the sorted variable names.
func (env *Environment) Names() []string {
	env.mu.RLock()
	defer env.mu.RUnlock()
	var names []string
	for name := range env.vars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// predeclared layers the environment over base. Environment entries win.
func (env *Environment) predeclared(base starlarkLib.StringDict) starlarkLib.StringDict {
	env.mu.RLock()
	defer env.mu.RUnlock()

	merged := make(starlarkLib.StringDict, len(base)+len(env.vars))
	maps.Copy(merged, base)
	maps.Copy(merged, env.vars)
	return merged
}

// merge stores the top-level globals of a finished chunk. The result slot
// "_" is chunk-local and never leaks into the shared table.
func (env *Environment) merge(globals starlarkLib.StringDict) {
	env.mu.Lock()
	defer env.mu.Unlock()
	for k, v := range globals {
		if k == resultGlobal {
			continue
		}
		env.vars[k] = v
	}
}
