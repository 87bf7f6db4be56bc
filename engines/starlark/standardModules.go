package starlark

import (
	"maps"

	starlarkJSON "go.starlark.net/lib/json"
	starlarkMath "go.starlark.net/lib/math"
	starlarkTime "go.starlark.net/lib/time"
	starlarkLib "go.starlark.net/starlark"
)

// Names of the predeclared values every chunk can reference.
const (
	namespaceJSON = "json"
	namespaceMath = "math"
	namespaceTime = "time"

	builtinModuleName = "module_name"
)

// threadLocalModule is the thread-local key holding the name of the module
// whose code is running.
const threadLocalModule = "scripttree.module"

// standardModules returns a copy of the Starlark universe with additional
// modules. The copy is shared by compile-time and run-time lookups so both
// phases agree on what is predeclared.
func standardModules() starlarkLib.StringDict {
	universe := maps.Clone(starlarkLib.Universe)

	universe[namespaceJSON] = starlarkJSON.Module
	universe[namespaceMath] = starlarkMath.Module
	universe[namespaceTime] = starlarkTime.Module
	universe[builtinModuleName] = starlarkLib.NewBuiltin(builtinModuleName, moduleName)

	return universe
}

// moduleName implements module_name(), returning the module that owns the
// running code.
func moduleName(
	thread *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	name, _ := thread.Local(threadLocalModule).(string)
	return starlarkLib.String(name), nil
}
