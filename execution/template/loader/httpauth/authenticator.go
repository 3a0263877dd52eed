// Package httpauth provides authentication strategies for the HTTP
// template loader.
package httpauth

import "net/http"

// Authenticator defines the interface for HTTP authentication strategies.
type Authenticator interface {
	// Authenticate applies authentication to the HTTP request, modifying
	// it in place.
	Authenticate(req *http.Request) error

	// Name returns a descriptive name of the authentication method.
	Name() string
}
