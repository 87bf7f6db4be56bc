package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lib.star")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))

	t.Run("valid paths", func(t *testing.T) {
		t.Parallel()

		for _, p := range []string{path, "file://" + path} {
			l, err := NewFromDisk(p)
			require.NoError(t, err)
			assert.Equal(t, "file", l.GetSourceURL().Scheme)
			assert.Equal(t, path, l.path)

			got, err := ReadAll(context.Background(), l)
			require.NoError(t, err)
			assert.Equal(t, "x = 1\n", got)
			assert.Contains(t, l.String(), "SHA256")
		}
	})

	t.Run("rejected paths", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			path string
			want error
		}{
			{name: "http scheme", path: "http://example.com/lib.star", want: ErrSchemeUnsupported},
			{name: "https scheme", path: "https://example.com/lib.star", want: ErrSchemeUnsupported},
			{name: "relative", path: "lib.star", want: ErrScriptNotAvailable},
			{name: "root", path: "/", want: ErrScriptNotAvailable},
		}
		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewFromDisk(tt.path)
				require.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		l, err := NewFromDisk(filepath.Join(dir, "missing.star"))
		require.NoError(t, err)
		_, err = ReadAll(context.Background(), l)
		require.ErrorIs(t, err, ErrScriptNotAvailable)
		assert.NotContains(t, l.String(), "SHA256")
	})

	t.Run("relative to dir", func(t *testing.T) {
		t.Parallel()

		l, err := NewFromDiskRelative(dir, "lib.star")
		require.NoError(t, err)
		assert.Equal(t, path, l.path)

		l, err = NewFromDiskRelative("/elsewhere", path)
		require.NoError(t, err)
		assert.Equal(t, path, l.path)
	})
}
