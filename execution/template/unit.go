// Package template holds the immutable template unit: a loaded source text
// bound to the data provider that will seed its execution scope.
package template

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phtml-go/phtml/execution/data"
	"github.com/phtml-go/phtml/execution/template/loader"
	"github.com/phtml-go/phtml/internal/helpers"
)

const checksumLength = 12

// Unit represents one template for the duration of a render: its source
// text, where it came from, and the provider supplying its bindings. The
// source is immutable; blocks are rescanned on every execute call, so the
// unit carries no parsed or cached form.
type Unit struct {
	// ID is a unique identifier for this unit, by default derived from a
	// checksum of the source text.
	ID string

	// CreatedAt records when this unit was instantiated.
	CreatedAt time.Time

	// Loader is where the source text was read from (disk, string, HTTP).
	Loader loader.Loader

	// DataProvider supplies the bindings that seed the execution scope.
	DataProvider data.Provider

	source string

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewUnit loads the template source through the given loader and binds it
// to a data provider. Static data, when present, is combined with the
// runtime provider so runtime bindings override static ones on collision.
// A loader that cannot produce the source is a fatal missing-template
// condition.
func NewUnit(
	handler slog.Handler,
	id string,
	scriptLoader loader.Loader,
	dataProvider data.Provider,
	static map[string]any,
) (*Unit, error) {
	handler, logger := helpers.SetupLogger(handler, "template", "Unit")

	if scriptLoader == nil {
		return nil, fmt.Errorf("%w: loader is nil", ErrTemplateMissing)
	}

	reader, err := scriptLoader.GetReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateMissing, err)
	}
	defer func() { _ = reader.Close() }()

	source, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateMissing, err)
	}

	if id == "" {
		id = helpers.SHA256Bytes(source)
		if len(id) > checksumLength {
			id = id[:checksumLength]
		}
	}

	var provider data.Provider
	switch {
	case static != nil && dataProvider != nil:
		provider = data.NewCompositeProvider(data.NewStaticProvider(static), dataProvider)
	case dataProvider != nil:
		provider = dataProvider
	default:
		provider = data.NewStaticProvider(static)
	}

	return &Unit{
		ID:           id,
		CreatedAt:    time.Now(),
		Loader:       scriptLoader,
		DataProvider: provider,
		source:       string(source),
		logHandler:   handler,
		logger:       logger.With("ID", id),
	}, nil
}

func (u *Unit) String() string {
	return fmt.Sprintf("template.Unit{ID: %s, CreatedAt: %s, Loader: %s}",
		u.ID, u.CreatedAt, u.Loader)
}

// GetID returns the unique identifier for this unit.
func (u *Unit) GetID() string {
	return u.ID
}

// GetSource returns the template source text.
func (u *Unit) GetSource() string {
	return u.source
}

// GetCreatedAt returns the timestamp when the unit was created.
func (u *Unit) GetCreatedAt() time.Time {
	return u.CreatedAt
}

// GetLoader returns the loader the source was read through.
func (u *Unit) GetLoader() loader.Loader {
	return u.Loader
}

// GetDataProvider returns the data provider for this unit.
func (u *Unit) GetDataProvider() data.Provider {
	return u.DataProvider
}
