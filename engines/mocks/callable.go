package mocks

import (
	"sync"

	"github.com/robbyt/go-scripttree/engine"
)

// Callable is a fixed engine.Callable for use with the Engine mock.
type Callable struct {
	Owner string
	Name  string
}

// NewCallable returns a callable owned by module.
func NewCallable(module string) *Callable {
	return &Callable{Owner: module, Name: module + "_0"}
}

func (c *Callable) Module() string       { return c.Owner }
func (c *Callable) FriendlyName() string { return c.Name }

// Environment is an in-memory engine.Environment.
type Environment struct {
	mu   sync.Mutex
	vars map[string]any
}

var _ engine.Environment = (*Environment)(nil)

func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]any)}
}

func (e *Environment) Get(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vars[name]
	return v, ok
}

func (e *Environment) Set(name string, v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = v
	return nil
}

func (e *Environment) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	return names
}
