// Package source fetches module source text from strings, files and HTTP
// servers.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
)

var (
	ErrSchemeUnsupported  = errors.New("unsupported scheme")
	ErrScriptNotAvailable = errors.New("script not available")
)

// Loader provides module source text.
type Loader interface {
	// GetReader opens the source. The caller closes the reader.
	GetReader(ctx context.Context) (io.ReadCloser, error)

	// GetSourceURL identifies where the source came from.
	GetSourceURL() *url.URL
}

// ReadAll reads the whole source from l.
func ReadAll(ctx context.Context, l Loader) (string, error) {
	if l == nil {
		return "", fmt.Errorf("%w: loader is nil", ErrScriptNotAvailable)
	}
	r, err := l.GetReader(ctx)
	if err != nil {
		return "", err
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", l.GetSourceURL(), err)
	}
	return string(b), nil
}
