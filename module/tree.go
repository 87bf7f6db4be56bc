package module

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-scripttree/engine"
)

// Node is a named position in a module tree: either a plain Tree or a
// ScriptModule. A Node can act as the library of a compilation.
type Node interface {
	Name() string
	Modules() []*ScriptModule

	tree() *Tree
	contributeLibrary(c *compilation) error
}

// Tree is a named, ordered, duplicate-free list of modules. Order is the
// compile and execution order. Membership is by identity: the same module
// appears at most once, while two distinct modules may share a name.
type Tree struct {
	name string

	mu      sync.RWMutex
	modules []*ScriptModule

	// version changes whenever membership changes, and for modules, when
	// the source changes. Compilations record it to detect staleness.
	version atomic.Uint64
}

var _ Node = (*Tree)(nil)

// NewTree creates a tree holding modules in the given order. Repeated
// entries are dropped.
func NewTree(name string, modules ...*ScriptModule) *Tree {
	t := &Tree{name: name}
	for _, m := range modules {
		t.AddModule(m)
	}
	return t
}

func (t *Tree) Name() string { return t.name }

func (t *Tree) String() string { return "module.Tree{" + t.name + "}" }

func (t *Tree) tree() *Tree { return t }

// Modules returns a snapshot of the direct children.
func (t *Tree) Modules() []*ScriptModule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.modules)
}

// Len returns the number of direct children.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.modules)
}

// Index returns the position of m among the direct children, or -1.
func (t *Tree) Index(m *ScriptModule) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Index(t.modules, m)
}

// AddModule appends m unless it is nil or already a child.
func (t *Tree) AddModule(m *ScriptModule) bool {
	if m == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if slices.Contains(t.modules, m) {
		return false
	}
	t.modules = append(t.modules, m)
	t.touch()
	return true
}

// RemoveModule removes m and reports whether it was a child.
func (t *Tree) RemoveModule(m *ScriptModule) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := slices.Index(t.modules, m)
	if i < 0 {
		return false
	}
	t.modules = slices.Delete(t.modules, i, i+1)
	t.touch()
	return true
}

// ClearModules drops every child. The modules themselves are untouched.
func (t *Tree) ClearModules() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.modules) == 0 {
		return
	}
	t.modules = nil
	t.touch()
}

// Find returns the first node named name, comparing case-insensitively. The
// tree itself is checked first, then every child subtree depth-first in
// order. It returns nil when nothing matches.
func (t *Tree) Find(name string) Node {
	return findNode(t, name, make(map[*Tree]struct{}))
}

// FindByCallable returns the node that defines c, using the module name the
// engine recorded when loading it.
func (t *Tree) FindByCallable(c engine.Callable) Node {
	if isNil(c) {
		return nil
	}
	return t.Find(c.Module())
}

func (t *Tree) contributeLibrary(c *compilation) error {
	c.record(t)
	for _, m := range t.Modules() {
		if err := m.contributeLibrary(c); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) touch() {
	t.version.Add(1)
}

// findNode searches n and its descendants. seen guards against cycles.
func findNode(n Node, name string, seen map[*Tree]struct{}) Node {
	t := n.tree()
	if _, ok := seen[t]; ok {
		return nil
	}
	seen[t] = struct{}{}

	if strings.EqualFold(n.Name(), name) {
		return n
	}
	for _, child := range t.Modules() {
		if found := findNode(child, name, seen); found != nil {
			return found
		}
	}
	return nil
}
