package starlark

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	starlarkLib "go.starlark.net/starlark"
)

// threadLocalLoading is the thread-local key holding the chain of modules
// currently being loaded, used to detect cycles.
const threadLocalLoading = "scripttree.loading"

type loadEntry struct {
	globals starlarkLib.StringDict
	err     error
}

// fileError marks a failure to find or read a module file. Such failures may
// clear up, so neither they nor the loads they break are cached.
type fileError struct {
	err error
}

func (e *fileError) Error() string { return e.err.Error() }

func (e *fileError) Unwrap() error { return e.err }

// load implements the starlark load() statement. Files are looked up in the
// configured module paths, executed once against the universe, and cached
// for the lifetime of the engine. Failures to find or read a file are not
// cached.
func (e *Engine) load(thread *starlarkLib.Thread, name string) (starlarkLib.StringDict, error) {
	e.loadMu.Lock()
	entry, ok := e.loaded[name]
	e.loadMu.Unlock()
	if ok {
		return entry.globals, entry.err
	}

	chain, _ := thread.Local(threadLocalLoading).([]string)
	if slices.Contains(chain, name) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrLoadCycle, strings.Join(chain, " -> "), name)
	}

	path, err := e.resolveModule(name)
	if err != nil {
		return nil, &fileError{err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &fileError{err: fmt.Errorf("failed to read module %q: %w", name, err)}
	}

	child := &starlarkLib.Thread{
		Name:  "load " + name,
		Print: thread.Print,
		Load:  e.load,
	}
	child.SetLocal(threadLocalModule, thread.Local(threadLocalModule))
	child.SetLocal(threadLocalLoading, append(slices.Clone(chain), name))

	globals, err := starlarkLib.ExecFileOptions(e.fileOptions, child, path, data, e.universe)
	if err != nil {
		var fe *fileError
		if errors.As(err, &fe) {
			return nil, runtimeError(name, err)
		}
		err = runtimeError(name, err)
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if existing, ok := e.loaded[name]; ok {
		// another thread loaded the same module concurrently; keep the first
		return existing.globals, existing.err
	}
	e.loaded[name] = &loadEntry{globals: globals, err: err}
	return globals, err
}

// resolveModule maps a load() name to a file inside one of the module paths.
func (e *Engine) resolveModule(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidModuleName, name)
	}

	for _, dir := range e.modulePaths {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat module %q: %w", name, err)
		}
		if info.IsDir() {
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: %q", ErrModuleNotFound, name)
}
