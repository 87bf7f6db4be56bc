package module

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-scripttree/engine"
	"github.com/robbyt/go-scripttree/persist"
)

// LibraryName is the name of the library tree of every Build.
const LibraryName = "lib"

// Build is the top-level entry point: a program tree of modules to run and a
// library tree whose modules are compiled ahead of, and run before, every
// program module.
type Build struct {
	*Tree

	library *Tree
	logger  *slog.Logger
}

// NewBuild creates an empty build. Only the logging options apply.
func NewBuild(name string, opts ...Option) (*Build, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Build{
		Tree:    NewTree(name),
		library: NewTree(LibraryName),
		logger:  cfg.newLogger().With("build", name),
	}, nil
}

func (b *Build) String() string {
	return fmt.Sprintf("module.Build{Name: %s, Library: %d, Program: %d}", b.Name(), b.library.Len(), b.Len())
}

// Library returns the library tree.
func (b *Build) Library() *Tree { return b.library }

// CompileAll compiles every program module against the library, in order,
// and stops at the first failure.
func (b *Build) CompileAll() error {
	logger := b.logger.WithGroup("CompileAll")
	for _, m := range b.Modules() {
		if err := m.Compile(b.library); err != nil {
			logger.Error("Build failed", "module", m.Name(), "error", err)
			return err
		}
	}
	logger.Debug("Build complete", "modules", b.Len())
	return nil
}

// ClearAll empties the library and program trees. The modules themselves are
// not changed.
func (b *Build) ClearAll() {
	b.library.ClearModules()
	b.ClearModules()
}

// Module returns the first program module, or program module descendant,
// named name.
func (b *Build) Module(name string) (*ScriptModule, error) {
	for _, m := range b.Modules() {
		if found, ok := m.Find(name).(*ScriptModule); ok {
			return found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// Run runs the named module's library funcs and then the module itself.
func (b *Build) Run(ctx context.Context, name string) (any, error) {
	m, err := b.Module(name)
	if err != nil {
		return nil, err
	}
	return runWithLibrary(ctx, m)
}

// RunAll runs every program module in order, each preceded by its library
// funcs. Modules that cannot run are skipped and their errors joined.
func (b *Build) RunAll(ctx context.Context) (map[string]any, error) {
	results := make(map[string]any)
	var errs []error
	for _, m := range b.Modules() {
		v, err := runWithLibrary(ctx, m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results[m.Name()] = v
	}
	return results, errors.Join(errs...)
}

func runWithLibrary(ctx context.Context, m *ScriptModule) (any, error) {
	if err := m.RunLibrary(ctx); err != nil {
		return nil, err
	}
	return m.Run(ctx)
}

// Write serializes the library and program trees.
func (b *Build) Write(w *persist.Writer, opts persist.SaveOptions) error {
	w.WriteString(persist.KeyBuild, b.Name())
	for _, part := range []struct {
		key  string
		tree *Tree
	}{
		{persist.KeyLibrary, b.library},
		{persist.KeyProgram, b.Tree},
	} {
		w.BeginList(part.key)
		for _, m := range part.tree.Modules() {
			if err := m.Write(w, part.key, opts); err != nil {
				return err
			}
		}
		w.End()
	}
	return w.Err()
}

// NewBuildFromDocument recreates a build written by Build.Write. opts apply to
// the build and to every module it creates.
func NewBuildFromDocument(eng engine.Engine, doc *persist.BuildDoc, opts ...Option) (*Build, error) {
	if doc == nil {
		return nil, errors.New("build document is nil")
	}
	b, err := NewBuild(doc.Name, opts...)
	if err != nil {
		return nil, err
	}
	for _, part := range []struct {
		tree *Tree
		docs []persist.ModuleDoc
	}{
		{b.library, doc.Library},
		{b.Tree, doc.Program},
	} {
		for _, md := range part.docs {
			m, err := NewModuleFromDocument(eng, md, opts...)
			if err != nil {
				return nil, err
			}
			part.tree.AddModule(m)
		}
	}
	return b, nil
}

// NewModuleFromDocument recreates a module and its children.
func NewModuleFromDocument(eng engine.Engine, doc persist.ModuleDoc, opts ...Option) (*ScriptModule, error) {
	flavor, err := FlavorByName(doc.Flavor)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", doc.Name, err)
	}
	mopts := append([]Option{WithFlavor(flavor), WithSource(doc.Text())}, opts...)
	if doc.FriendlyName != "" {
		mopts = append(mopts, WithFriendlyName(doc.FriendlyName))
	}
	if doc.Isolated {
		mopts = append(mopts, WithIsolatedEnvironment())
	}

	m, err := NewScriptModule(eng, doc.Name, doc.CodeType, mopts...)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", doc.Name, err)
	}
	for _, child := range doc.Modules {
		c, err := NewModuleFromDocument(eng, child, opts...)
		if err != nil {
			return nil, err
		}
		m.AddModule(c)
	}
	return m, nil
}
