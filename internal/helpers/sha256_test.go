package helpers

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	moduleSource = "_ = 6 * 7\n"
	buildDoc     = "build: demo\nprogram:\n  - name: main\n    source: _ = 1\n"
)

func TestSHA256_Fingerprints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty module source", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"module source", moduleSource, "85fb80f13feeaab23b1c57aa9f7ca6e95b1c90520e71652225ce88df5990cfcf"},
		{"build document", buildDoc, "eca6970dd0fc26fdeb942a12aaa1ce2cfdf8c884d242d8652c301e9e2d891984"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SHA256(tt.in))
			assert.Equal(t, tt.want, SHA256Bytes([]byte(tt.in)))

			got, err := SHA256Reader(iotest.OneByteReader(strings.NewReader(tt.in)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "streamed sources hash like in-memory ones")
		})
	}
}

func TestSHA256_SourceEdits(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, SHA256(moduleSource), SHA256(strings.TrimSpace(moduleSource)),
		"a trailing newline is part of the stored source")
	assert.Len(t, SHA256(buildDoc), 64)
}

func TestSHA256Reader_Error(t *testing.T) {
	t.Parallel()

	broken := errors.New("connection reset")
	_, err := SHA256Reader(iotest.ErrReader(broken))
	require.ErrorIs(t, err, broken)
}
