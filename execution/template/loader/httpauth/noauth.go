package httpauth

import "net/http"

// NoAuth is the no-authentication strategy, useful as a default or for
// explicitly indicating that no authentication is required.
type NoAuth struct{}

// NewNoAuth creates a new NoAuth authenticator instance.
func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

// Authenticate does nothing as no authentication is needed.
func (n *NoAuth) Authenticate(_ *http.Request) error {
	return nil
}

// Name returns the name of the authentication method.
func (n *NoAuth) Name() string {
	return "None"
}
