package module

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestScriptModule_ConcurrentCompileAndRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng := newStarlarkEngine(t)
	lib := NewTree("lib", newModule(t, eng, "consts", "step = 2"))

	const workers = 8
	mods := make([]*ScriptModule, workers)
	for i := range mods {
		mods[i] = newModule(t, eng, fmt.Sprintf("m%d", i),
			fmt.Sprintf("_ = step * %d", i), WithIsolatedEnvironment())
		mods[i].AddModule(newModule(t, eng, fmt.Sprintf("c%d", i), "pass"))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range mods {
		i, m := i, m
		g.Go(func() error {
			for n := 0; n < 20; n++ {
				if err := m.Compile(lib); err != nil {
					return err
				}
				if err := m.RunLibrary(gctx); err != nil {
					return err
				}
				got, err := m.Run(gctx)
				if err != nil {
					return err
				}
				if got != int64(2*i) {
					return fmt.Errorf("%s: got %v", m.Name(), got)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestScriptModule_ConcurrentSameModule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng := newStarlarkEngine(t)
	shared := newModule(t, eng, "shared", "s = 1")
	m := newModule(t, eng, "main", "_ = 1")
	m.AddModule(shared)

	other := newModule(t, eng, "other", "_ = 2")
	other.AddModule(shared)

	g := new(errgroup.Group)
	for i := 0; i < 4; i++ {
		i := i
		g.Go(func() error {
			for j := 0; j < 25; j++ {
				switch (i + j) % 4 {
				case 0:
					_ = m.Compile(nil)
				case 1:
					_, _ = m.Run(ctx)
				case 2:
					_ = other.Compile(nil)
				case 3:
					m.SetSource(fmt.Sprintf("_ = %d", j%2))
				}
				_ = m.State()
				_ = m.Funcs()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, m.Compile(nil))
	assert.True(t, m.IsCompiled())
	assert.Equal(t, []string{"shared", "main"}, funcModules(m.Funcs()))
}

func TestScriptModule_ConcurrentCompileOfMutualChildren(t *testing.T) {
	t.Parallel()

	eng := newStarlarkEngine(t)
	a := newModule(t, eng, "a", "")
	b := newModule(t, eng, "b", "")
	a.AddModule(b)
	b.AddModule(a)

	done := make(chan error, 1)
	go func() {
		var g errgroup.Group
		for _, m := range []*ScriptModule{a, b} {
			m := m
			g.Go(func() error {
				for n := 0; n < 50; n++ {
					if err := m.Compile(nil); !errors.Is(err, ErrCycle) {
						return fmt.Errorf("compile %s: expected a cycle error, got %v", m.Name(), err)
					}
				}
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("compiling two modules that are each other's child did not return")
	}
	assert.False(t, a.IsCompiled())
	assert.False(t, b.IsCompiled())
}
