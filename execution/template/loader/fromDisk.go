package loader

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FromDisk loads template source from a file path. Only absolute paths are
// accepted; whether the file exists is checked at read time so a unit built
// from a vanished file fails loudly when loaded, not silently earlier.
type FromDisk struct {
	path      string
	sourceURL *url.URL
}

func NewFromDisk(path string) (*FromDisk, error) {
	path = strings.TrimPrefix(path, "file://")

	if strings.Contains(path, "://") {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, path)
	}

	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: relative paths are not supported", ErrTemplateNotAvailable)
	}

	path = filepath.Clean(path)
	if path == "" || path == "." || path == "/" {
		return nil, fmt.Errorf("%w: path is empty or invalid", ErrTemplateNotAvailable)
	}

	u, err := url.Parse("file://" + path)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}

	return &FromDisk{
		path:      path,
		sourceURL: u,
	}, nil
}

func (l *FromDisk) String() string {
	return fmt.Sprintf("loader.FromDisk{Path: %s}", l.path)
}

func (l *FromDisk) GetReader() (io.ReadCloser, error) {
	reader, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateNotAvailable, err)
	}
	return reader, nil
}

// GetSourceURL returns the source URL of the template.
func (l *FromDisk) GetSourceURL() *url.URL {
	return l.sourceURL
}
