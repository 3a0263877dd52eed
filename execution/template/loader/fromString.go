package loader

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/phtml-go/phtml/internal/helpers"
)

// FromString loads template source from an in-memory string. The content is
// kept byte-for-byte: template whitespace is significant, so no trimming.
type FromString struct {
	content   string
	sourceURL *url.URL
}

func NewFromString(content string) (*FromString, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrTemplateNotAvailable)
	}

	u, err := url.Parse("template://inline/" + helpers.SHA256(content)[:8])
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}

	return &FromString{
		content:   content,
		sourceURL: u,
	}, nil
}

func (l *FromString) String() string {
	return fmt.Sprintf("loader.FromString{Chars: %d}", len(l.content))
}

func (l *FromString) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(l.content)), nil
}

// GetSourceURL returns the source URL of the template.
func (l *FromString) GetSourceURL() *url.URL {
	return l.sourceURL
}
