package data

import (
	"context"
	"fmt"
	"maps"
)

// CompositeProvider combines multiple providers and merges their results.
// Later providers in the chain override values from earlier providers, which
// is how per-call bindings take precedence over instance bindings.
type CompositeProvider struct {
	providers []Provider
}

// NewCompositeProvider creates a new CompositeProvider with the given
// providers, queried in the order they are provided.
func NewCompositeProvider(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{
		providers: providers,
	}
}

// GetData implements Provider. It calls each provider in sequence and merges
// the results.
func (p *CompositeProvider) GetData(ctx context.Context) (map[string]any, error) {
	result := make(map[string]any)

	for i, provider := range p.providers {
		if provider == nil {
			continue
		}

		data, err := provider.GetData(ctx)
		if err != nil {
			return nil, fmt.Errorf("error from provider %d: %w", i, err)
		}

		maps.Copy(result, data)
	}

	return result, nil
}
