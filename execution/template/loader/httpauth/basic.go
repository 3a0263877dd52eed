package httpauth

import "net/http"

// BasicAuth applies HTTP Basic Authentication. An empty username means no
// credentials are attached, matching the behavior of an unset strategy.
type BasicAuth struct {
	username string
	password string
}

// NewBasicAuth creates a Basic Authentication strategy.
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{
		username: username,
		password: password,
	}
}

// Authenticate attaches the credentials to the request.
func (b *BasicAuth) Authenticate(req *http.Request) error {
	if b.username == "" {
		return nil
	}
	req.SetBasicAuth(b.username, b.password)
	return nil
}

// Name returns the name of the authentication method.
func (b *BasicAuth) Name() string {
	return "Basic"
}
