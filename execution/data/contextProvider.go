package data

import (
	"context"
	"fmt"
	"maps"

	"github.com/phtml-go/phtml/execution/constants"
)

// ContextProvider retrieves binding data stored on the context under a
// configured key. It is the provider to use when binding values are prepared
// away from the render call site, for example by HTTP middleware.
type ContextProvider struct {
	contextKey constants.ContextKey
}

// NewContextProvider creates a new ContextProvider with the given context key.
func NewContextProvider(contextKey constants.ContextKey) *ContextProvider {
	return &ContextProvider{
		contextKey: contextKey,
	}
}

// GetData extracts a map[string]any from the context using the configured key.
// A context carrying no value yields an empty map, not an error.
func (p *ContextProvider) GetData(ctx context.Context) (map[string]any, error) {
	if p.contextKey == "" {
		return nil, fmt.Errorf("context key is empty")
	}

	value := ctx.Value(p.contextKey)
	if value == nil {
		return make(map[string]any), nil
	}

	bindings, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid binding data type: expected map[string]any, got %T", value)
	}

	return bindings, nil
}

// AddDataToContext implements Setter. It merges the given maps, later maps
// overriding earlier ones, and stores the result on a new context under the
// configured key. Data already present under the key is carried forward.
func (p *ContextProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	if p.contextKey == "" {
		return ctx, fmt.Errorf("context key is empty")
	}

	toStore := make(map[string]any)
	if existing, ok := ctx.Value(p.contextKey).(map[string]any); ok {
		maps.Copy(toStore, existing)
	}

	for _, m := range data {
		maps.Copy(toStore, m)
	}

	return context.WithValue(ctx, p.contextKey, toStore), nil
}
