package starlark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	starlarkLib "go.starlark.net/starlark"
)

func TestToGo_MapKeys(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		src    string
		want   any
		rawLen int
	}{
		{name: "distinct keys", src: `_ = {1: "a", "b": 2}`, want: map[string]any{"1": "a", "b": int64(2)}},
		{name: "colliding dict keys", src: `_ = {1: "a", "1": "b"}`, rawLen: 2},
		{name: "distinct set elements", src: `_ = set([1, "b"])`, want: map[string]struct{}{"1": {}, "b": {}}},
		{name: "colliding set elements", src: `_ = set([1, "1"])`, rawLen: 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.Load(fileChunk("main", tt.src), e.NewEnvironment())
			require.NoError(t, err)
			got, err := e.Invoke(ctx, c)
			require.NoError(t, err)

			if tt.rawLen == 0 {
				assert.Equal(t, tt.want, got)
				return
			}
			raw, ok := got.(starlarkLib.Value)
			require.True(t, ok, "expected the starlark value, got %T", got)
			assert.Equal(t, tt.rawLen, starlarkLib.Len(raw))
		})
	}
}
