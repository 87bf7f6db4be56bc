package helpers

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("custom handler with group", func(t *testing.T) {
		var buf bytes.Buffer
		in := slog.NewTextHandler(&buf, nil)

		handler, logger := SetupLogger(in, "module", "Compile")
		require.NotNil(t, logger)
		assert.Equal(t, in, handler)

		logger.Info("hello", "key", "value")
		assert.Contains(t, buf.String(), "Compile.key=value")
	})

	t.Run("custom handler without group", func(t *testing.T) {
		var buf bytes.Buffer
		_, logger := SetupLogger(slog.NewTextHandler(&buf, nil), "module", "")

		logger.Info("hello", "key", "value")
		assert.Contains(t, buf.String(), " key=value")
	})

	t.Run("nil handler falls back to default", func(t *testing.T) {
		handler, logger := SetupLogger(nil, "starlark", "Engine")
		require.NotNil(t, handler)
		require.NotNil(t, logger)
	})
}
