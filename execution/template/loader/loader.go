// Package loader provides implementations of the Loader interface for
// various template source types.
package loader

import (
	"io"
	"net/url"
)

type Loader interface {
	GetReader() (io.ReadCloser, error)
	GetSourceURL() *url.URL
}
