package gqlhttp

import (
	"net/http"
	"time"
)

// Option configures the transport
type Option func(*Transport)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		if t.client == nil {
			t.client = &http.Client{}
		}
		t.client.Timeout = timeout
	}
}

// WithHeader adds a default header sent with every request. Defaults
// lose to headers attached to the request context.
func WithHeader(key, value string) Option {
	return func(t *Transport) {
		t.header.Set(key, value)
	}
}

// WithUseGETForQueries sends read-only operations without uploads as
// GET requests with the body encoded in the query string
func WithUseGETForQueries(use bool) Option {
	return func(t *Transport) {
		t.useGET = use
	}
}
