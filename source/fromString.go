package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/robbyt/go-scripttree/internal/helpers"
)

// FromString serves source held in memory. Unlike the other loaders it
// accepts empty text, which clears a module.
type FromString struct {
	content   string
	sourceURL *url.URL
}

func NewFromString(content string) (*FromString, error) {
	u, err := url.Parse("string://inline/" + helpers.SHA256(content)[:8])
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}

	return &FromString{
		content:   content,
		sourceURL: u,
	}, nil
}

func (l *FromString) String() string {
	return fmt.Sprintf("source.FromString{Chars: %d}", len(l.content))
}

func (l *FromString) GetReader(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(l.content)), nil
}

// GetSourceURL returns the source URL of the script.
func (l *FromString) GetSourceURL() *url.URL {
	return l.sourceURL
}
