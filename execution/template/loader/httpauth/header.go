package httpauth

import (
	"maps"
	"net/http"
)

// HeaderAuth applies authentication via custom headers, for example a
// bearer token in the Authorization header.
type HeaderAuth struct {
	headers map[string]string
}

// NewHeaderAuth creates a header-based authentication strategy. The map is
// cloned so later caller mutations don't leak into issued requests.
func NewHeaderAuth(headers map[string]string) *HeaderAuth {
	return &HeaderAuth{
		headers: maps.Clone(headers),
	}
}

// NewBearerAuth creates a header strategy carrying "Authorization: Bearer <token>".
func NewBearerAuth(token string) *HeaderAuth {
	return NewHeaderAuth(map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// Authenticate attaches the configured headers to the request.
func (h *HeaderAuth) Authenticate(req *http.Request) error {
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Name returns the name of the authentication method.
func (h *HeaderAuth) Name() string {
	return "Header"
}
