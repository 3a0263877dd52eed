package loader

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/phtml-go/phtml/internal/helpers"
)

// FromIoReader loads template source from an io.Reader. The entire reader
// content is read and stored up front so GetReader can be called repeatedly.
type FromIoReader struct {
	content   []byte
	sourceURL *url.URL
}

// NewFromIoReader creates a new Loader from an io.Reader source. The
// sourceName is used to label the source URL and may be empty.
func NewFromIoReader(reader io.Reader, sourceName string) (*FromIoReader, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: reader is nil", ErrTemplateNotAvailable)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrTemplateNotAvailable)
	}

	if sourceName == "" {
		sourceName = "unnamed"
	}
	urlStr := "reader://" + sourceName + "/" + helpers.SHA256Bytes(content)[:8]

	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}

	return &FromIoReader{
		content:   content,
		sourceURL: u,
	}, nil
}

func (l *FromIoReader) String() string {
	return fmt.Sprintf("loader.FromIoReader{Bytes: %d, Source: %s}", len(l.content), l.sourceURL)
}

// GetReader returns a new reader for the stored content.
func (l *FromIoReader) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.content)), nil
}

// GetSourceURL returns the source URL of the template.
func (l *FromIoReader) GetSourceURL() *url.URL {
	return l.sourceURL
}
