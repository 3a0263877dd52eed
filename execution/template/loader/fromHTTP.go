package loader

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/phtml-go/phtml/execution/template/loader/httpauth"
)

const defaultHTTPTimeout = 30 * time.Second

// FromHTTP loads template source from an HTTP or HTTPS URL, with a
// pluggable authentication strategy. The fetch happens at read time, so
// each GetReader call observes the current remote content.
type FromHTTP struct {
	sourceURL *url.URL
	client    *http.Client
	auth      httpauth.Authenticator
}

// HTTPOption customizes a FromHTTP loader.
type HTTPOption func(*FromHTTP)

// WithTimeout sets the request timeout (default 30s).
func WithTimeout(d time.Duration) HTTPOption {
	return func(l *FromHTTP) {
		l.client.Timeout = d
	}
}

// WithAuth sets the authentication strategy (default none).
func WithAuth(auth httpauth.Authenticator) HTTPOption {
	return func(l *FromHTTP) {
		l.auth = auth
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(l *FromHTTP) {
		l.client = client
	}
}

// NewFromHTTP creates a loader for the given http(s) URL.
func NewFromHTTP(rawURL string, opts ...HTTPOption) (*FromHTTP, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, rawURL)
	}

	l := &FromHTTP{
		sourceURL: u,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		auth:      httpauth.NewNoAuth(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *FromHTTP) String() string {
	return fmt.Sprintf("loader.FromHTTP{URL: %s, Auth: %s}", l.sourceURL, l.auth.Name())
}

// GetReader fetches the template content. Any non-200 response is a
// missing-template condition.
func (l *FromHTTP) GetReader() (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, l.sourceURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if err := l.auth.Authenticate(req); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateNotAvailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %d from %s",
			ErrTemplateNotAvailable, resp.StatusCode, l.sourceURL)
	}

	return resp.Body, nil
}

// GetSourceURL returns the source URL of the template.
func (l *FromHTTP) GetSourceURL() *url.URL {
	return l.sourceURL
}
