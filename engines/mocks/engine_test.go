package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/robbyt/go-scripttree/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEngine(t *testing.T) {
	t.Parallel()

	env := NewEnvironment()
	c := NewCallable("main")
	m := new(Engine)
	m.On("Globals").Return(env)
	m.On("Load", mock.Anything, env).Return(c, nil)
	m.On("Invoke", mock.Anything, c).Return(int64(7), nil)
	m.On("RegisterOnce", mock.Anything, "x = 1", env).Return(errors.New("no"))

	require.Equal(t, env, m.Globals())

	got, err := m.Load(engine.Chunk{Source: "x"}, env)
	require.NoError(t, err)
	assert.Equal(t, "main", got.Module())
	assert.Equal(t, "main_0", got.FriendlyName())

	v, err := m.Invoke(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	require.Error(t, m.RegisterOnce(context.Background(), "x = 1", env))
	m.AssertExpectations(t)
}

func TestEnvironment(t *testing.T) {
	t.Parallel()
	env := NewEnvironment()
	require.NoError(t, env.Set("a", 1))
	v, ok := env.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"a"}, env.Names())
}
