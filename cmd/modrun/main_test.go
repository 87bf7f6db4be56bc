package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/robbyt/go-scripttree/internal/cli"
	"github.com/robbyt/go-scripttree/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workspaceHCL = `
library {
  module "base" {
    source = "base = ${var.base}"
  }
}

program {
  module "first" {
    source = "_ = base + 1"
  }
  module "second" {
    flavor = "expression"
    source = "base * 2"
  }
}
`

func writeWorkspace(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ws.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestRun_All(t *testing.T) {
	t.Parallel()

	path := writeWorkspace(t, workspaceHCL)
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(context.Background(), out, logs, []string{"-var", "base=20", path})
	require.NoError(t, err)
	assert.Equal(t, "first = 21\nsecond = 40\n", out.String())
}

func TestRun_One(t *testing.T) {
	t.Parallel()

	path := writeWorkspace(t, workspaceHCL)
	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-var", "base=1", "-run", "second", path})
	require.NoError(t, err)
	assert.Equal(t, "second = 2\n", out.String())
}

func TestRun_Export(t *testing.T) {
	t.Parallel()

	path := writeWorkspace(t, workspaceHCL)
	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-var", "base=3", "-export", path})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "build: ws\n")
	assert.Contains(t, out.String(), "source: base = 3\n")
	assert.Contains(t, out.String(), "expression: base * 2\n")
}

func TestRun_SaveAndLoad(t *testing.T) {
	t.Parallel()

	path := writeWorkspace(t, workspaceHCL)
	db := filepath.Join(t.TempDir(), "modrun.db")
	ctx := context.Background()

	out := &bytes.Buffer{}
	require.NoError(t, run(ctx, out, &bytes.Buffer{}, []string{"-db", db, "-save", "nightly", "-var", "base=5", path}))
	assert.Equal(t, "first = 6\nsecond = 10\n", out.String())

	out.Reset()
	require.NoError(t, run(ctx, out, &bytes.Buffer{}, []string{"-db", db, "-load", "nightly", "-run", "first"}))
	assert.Equal(t, "first = 6\n", out.String())
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	t.Run("compile error", func(t *testing.T) {
		path := writeWorkspace(t, `
program {
  module "bad" {
    source = "def ("
  }
}
`)
		err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{path})
		var ce *module.CompileError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "bad", ce.Module)
	})

	t.Run("unknown module", func(t *testing.T) {
		path := writeWorkspace(t, workspaceHCL)
		err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"-var", "base=1", "-run", "third", path})
		require.ErrorIs(t, err, module.ErrModuleNotFound)
	})

	t.Run("missing workspace", func(t *testing.T) {
		err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{filepath.Join(t.TempDir(), "nope.hcl")})
		require.Error(t, err)
	})

	t.Run("parse error", func(t *testing.T) {
		err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})
		var exitErr *cli.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
	})
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, &bytes.Buffer{}, []string{"-h"}))
	assert.Contains(t, out.String(), "Usage:")
}
