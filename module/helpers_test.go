package module

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/robbyt/go-scripttree/engine"
	"github.com/robbyt/go-scripttree/engines/mocks"
	starlarkengine "github.com/robbyt/go-scripttree/engines/starlark"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func discardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

func newStarlarkEngine(t *testing.T) *starlarkengine.Engine {
	t.Helper()
	e, err := starlarkengine.New(starlarkengine.WithLogHandler(discardHandler()))
	require.NoError(t, err)
	return e
}

// newModule creates a module logging to the discard handler unless opts
// replace it.
func newModule(t *testing.T, eng engine.Engine, name, src string, opts ...Option) *ScriptModule {
	t.Helper()
	opts = append([]Option{WithLogHandler(discardHandler()), WithSource(src)}, opts...)
	m, err := NewScriptModule(eng, name, 0, opts...)
	require.NoError(t, err)
	return m
}

func funcModules(fs []*FuncNode) []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.ModuleName())
	}
	return names
}

// chunkFor matches the chunk loaded for the named module.
func chunkFor(module string) any {
	return mock.MatchedBy(func(c engine.Chunk) bool { return c.Module == module })
}

func newMockEngine() (*mocks.Engine, *mocks.Environment) {
	env := mocks.NewEnvironment()
	eng := new(mocks.Engine)
	eng.On("Globals").Return(env)
	return eng, env
}
