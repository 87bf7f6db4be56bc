package source

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/robbyt/go-scripttree/internal/helpers"
)

// HTTPAuthType selects how FromHTTP authenticates.
type HTTPAuthType string

const (
	NoAuth HTTPAuthType = "none"

	// BasicAuth uses HTTPOptions.Username and HTTPOptions.Password.
	BasicAuth HTTPAuthType = "basic"

	// HeaderAuth sends HTTPOptions.Headers, e.g. an Authorization header.
	HeaderAuth HTTPAuthType = "header"
)

// HTTPOptions configures FromHTTP. Start from DefaultHTTPOptions.
type HTTPOptions struct {
	// Timeout limits each request. Zero means no limit.
	Timeout time.Duration

	TLSConfig *tls.Config

	// InsecureSkipVerify disables certificate checks. Test use only.
	InsecureSkipVerify bool

	AuthType HTTPAuthType
	Username string
	Password string

	// Headers are added to every request.
	Headers map[string]string
}

// DefaultHTTPOptions returns a 30 second timeout, verified TLS and no
// authentication.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Timeout:  30 * time.Second,
		AuthType: NoAuth,
		Headers:  make(map[string]string),
	}
}

// FromHTTP loads source from an http or https URL on every GetReader call.
type FromHTTP struct {
	url       string
	sourceURL *url.URL
	options   *HTTPOptions
	client    *http.Client
}

func NewFromHTTP(rawURL string) (*FromHTTP, error) {
	return NewFromHTTPWithOptions(rawURL, DefaultHTTPOptions())
}

func NewFromHTTPWithOptions(rawURL string, options *HTTPOptions) (*FromHTTP, error) {
	sourceURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}
	if sourceURL.Scheme != "http" && sourceURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, rawURL)
	}
	if options == nil {
		options = DefaultHTTPOptions()
	}

	client := &http.Client{Timeout: options.Timeout}
	if options.InsecureSkipVerify || options.TLSConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if options.TLSConfig != nil {
			transport.TLSClientConfig = options.TLSConfig
		} else {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		client.Transport = transport
	}

	return &FromHTTP{
		url:       rawURL,
		sourceURL: sourceURL,
		options:   options,
		client:    client,
	}, nil
}

// GetReader performs the request. Any non-2xx status is ErrScriptNotAvailable.
func (l *FromHTTP) GetReader(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range l.options.Headers {
		req.Header.Set(key, value)
	}
	if l.options.AuthType == BasicAuth && l.options.Username != "" {
		req.SetBasicAuth(l.options.Username, l.options.Password)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "go-scripttree/http-source")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d - %s", ErrScriptNotAvailable, resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

func (l *FromHTTP) GetSourceURL() *url.URL {
	return l.sourceURL
}

// String fetches the source to include its checksum.
func (l *FromHTTP) String() string {
	noChkSum := fmt.Sprintf("source.FromHTTP{URL: %s}", l.url)

	reader, err := l.GetReader(context.Background())
	if err != nil {
		return noChkSum
	}
	defer reader.Close()

	chksum, err := helpers.SHA256Reader(reader)
	if err != nil {
		return noChkSum
	}
	return fmt.Sprintf("source.FromHTTP{URL: %s, SHA256: %s}", l.url, chksum[:8])
}
