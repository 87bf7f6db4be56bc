package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/robbyt/go-scripttree/internal/helpers"
)

type FromDisk struct {
	path      string
	sourceURL *url.URL
}

// NewFromDisk creates a loader for an absolute path, with or without the
// file:// scheme.
func NewFromDisk(path string) (*FromDisk, error) {
	path = strings.TrimPrefix(path, "file://")

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, path)
	}

	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: relative paths are not supported", ErrScriptNotAvailable)
	}

	path = filepath.Clean(path)
	if path == "/" || path == "\\" {
		return nil, fmt.Errorf("%w: path is empty or invalid", ErrScriptNotAvailable)
	}

	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}

	return &FromDisk{
		path:      path,
		sourceURL: u,
	}, nil
}

// NewFromDiskRelative resolves path against dir when it is not absolute.
func NewFromDiskRelative(dir, path string) (*FromDisk, error) {
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "file://") {
		path = filepath.Join(dir, path)
	}
	return NewFromDisk(path)
}

func (l *FromDisk) String() string {
	noChkSum := fmt.Sprintf("source.FromDisk{Path: %s}", l.path)

	f, err := os.Open(l.path)
	if err != nil {
		return noChkSum
	}
	defer f.Close()

	chksum, err := helpers.SHA256Reader(f)
	if err != nil {
		return noChkSum
	}
	return fmt.Sprintf("source.FromDisk{Path: %s, SHA256: %s}", l.path, chksum[:8])
}

func (l *FromDisk) GetReader(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptNotAvailable, err)
	}
	return f, nil
}

// GetSourceURL returns the source URL of the script.
func (l *FromDisk) GetSourceURL() *url.URL {
	return l.sourceURL
}
