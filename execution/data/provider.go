package data

import "context"

// Getter defines the interface for retrieving binding data from a context.
type Getter interface {
	GetData(ctx context.Context) (map[string]any, error)
}

// Setter enriches a context with binding data for a later render. It exists
// so data preparation can happen away from the render call site, for example
// in HTTP middleware that stashes per-request values on the context.
type Setter interface {
	AddDataToContext(ctx context.Context, data ...map[string]any) (context.Context, error)
}

// Provider defines the interface for accessing binding data during template
// execution. The executor seeds the sandbox scope exclusively from a
// Provider's GetData result.
type Provider interface {
	Getter
}
