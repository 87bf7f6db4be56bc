package scripttree

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/robbyt/go-scripttree/engines/starlark"
	"github.com/robbyt/go-scripttree/module"
	"github.com/robbyt/go-scripttree/store"
	"github.com/robbyt/go-scripttree/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() Option {
	return WithLogHandler(slog.NewTextHandler(io.Discard, nil))
}

func TestNewStarlarkSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := NewStarlarkSession("demo", quiet(),
		WithEngineOptions(starlark.WithGlobals(map[string]any{"factor": 3})))
	require.NoError(t, err)
	assert.Equal(t, "demo", s.Build.Name())

	lib, err := s.NewModule("lib", "x = 1")
	require.NoError(t, err)
	main, err := s.NewModule("main", "_ = (x + 1) * factor")
	require.NoError(t, err)
	s.Build.Library().AddModule(lib)
	s.Build.AddModule(main)

	got, err := s.Run(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	results, err := s.RunAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"main": int64(6)}, results)
}

func TestSession_CompileFailure(t *testing.T) {
	t.Parallel()

	s, err := NewStarlarkSession("demo", quiet())
	require.NoError(t, err)
	bad, err := s.NewModule("bad", "def (")
	require.NoError(t, err)
	s.Build.AddModule(bad)

	_, err = s.Run(context.Background(), "bad")
	var ce *module.CompileError
	require.ErrorAs(t, err, &ce)

	_, err = s.RunAll(context.Background())
	require.ErrorAs(t, err, &ce)
}

func TestFromWorkspaceFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ws.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
library {
  module "greeting" {
    source = "prefix = '${var.prefix}'"
  }
}

program {
  module "hello" {
    source = "_ = prefix + ', ' + module_name()"
  }
}
`), 0o600))

	ctx := context.Background()
	s, err := FromWorkspaceFile(ctx, path, quiet(),
		WithWorkspaceOptions(workspace.WithStringVariables(map[string]string{"prefix": "Hello"})))
	require.NoError(t, err)
	assert.Equal(t, "ws", s.Build.Name())

	got, err := s.Run(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello, hello", got)

	st, err := store.Open(ctx, store.MemoryDSN, store.WithLogHandler(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Save(ctx, "saved", s.Build))

	restored, err := FromStore(ctx, st, "saved", quiet())
	require.NoError(t, err)
	got, err = restored.Run(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello, hello", got)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	_, err := NewStarlarkSession("demo", WithLogHandler(nil))
	require.Error(t, err)

	_, err = NewStarlarkSession("", quiet())
	require.ErrorIs(t, err, module.ErrEmptyName)
}

func TestFromWorkspaceSource(t *testing.T) {
	t.Parallel()

	s, err := FromWorkspaceSource(context.Background(), "inline.hcl", []byte(`
program {
  module "answer" {
    flavor = "expression"
    source = "6 * 7"
  }
}
`), quiet())
	require.NoError(t, err)
	assert.Equal(t, "inline", s.Build.Name())

	results, err := s.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), results["answer"])

	_, err = FromWorkspaceSource(context.Background(), "bad.hcl", []byte(`program {`), quiet())
	require.ErrorIs(t, err, workspace.ErrInvalidWorkspace)
}
