package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	tests := []struct {
		name      string
		err       error
		isSyntax  bool
		isRuntime bool
		message   string
	}{
		{
			name:     "syntax error",
			err:      &SyntaxError{FriendlyName: "main_0", Msg: "main_0:1:3: got newline", Err: cause},
			isSyntax: true,
			message:  "main_0:1:3: got newline",
		},
		{
			name:      "runtime error",
			err:       &RuntimeError{Msg: "division by zero", Err: cause},
			isRuntime: true,
			message:   "division by zero",
		},
		{
			name:      "wrapped runtime error",
			err:       fmt.Errorf("invoke: %w", &RuntimeError{Msg: "x", Err: cause}),
			isRuntime: true,
			message:   "invoke: x",
		},
		{
			name:    "plain error",
			err:     cause,
			message: "boom",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isSyntax, IsSyntaxError(tt.err))
			assert.Equal(t, tt.isRuntime, IsRuntimeError(tt.err))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}

	t.Run("unwraps to cause", func(t *testing.T) {
		err := &SyntaxError{Msg: "bad", Err: cause}
		require.ErrorIs(t, err, cause)
	})
}

func TestChunkKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "file", FileChunk.String())
	assert.Equal(t, "expression", ExpressionChunk.String())
	assert.Equal(t, "unknown", ChunkKind(42).String())
}
