package data

import (
	"context"
	"maps"
)

// StaticProvider is a simple provider that returns a predefined map of data.
// It's useful for per-call bindings and for cases where the input data is
// known in advance and doesn't need to be retrieved from the context or
// external sources.
type StaticProvider struct {
	data map[string]any
}

// NewStaticProvider creates a new StaticProvider with the provided data map.
func NewStaticProvider(data map[string]any) *StaticProvider {
	if data == nil {
		data = make(map[string]any)
	}
	return &StaticProvider{
		data: data,
	}
}

// GetData implements Provider. It returns a clone of the static data map
// regardless of the context, preventing modification of the original.
func (p *StaticProvider) GetData(_ context.Context) (map[string]any, error) {
	return maps.Clone(p.data), nil
}
