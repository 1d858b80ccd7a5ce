// Package config loads client configuration from the environment.
package config

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

// GQL configures a GraphQL client: where to connect and how.
type GQL struct {
	// Endpoint is the HTTP URL queries and mutations are sent to
	Endpoint string

	// WSEndpoint is the websocket URL subscriptions connect to.
	// Empty means the client has no subscription transport.
	WSEndpoint string

	// UseGETForQueries sends side-effect-free operations as GET
	// requests so caches and CDNs can serve them
	UseGETForQueries bool

	// Timeout bounds one HTTP round trip
	Timeout time.Duration

	// Headers are sent with every request on either transport
	Headers map[string]string
}

// LoadGQLFromEnv reads the client configuration from the environment.
//
//	GQL_ENDPOINT      HTTP endpoint URL
//	GQL_WS_ENDPOINT   websocket endpoint URL (optional)
//	GQL_USE_GET       send queries as GET (default false)
//	GQL_TIMEOUT       round trip timeout (default 30s)
//	GQL_HEADER_*      extra headers; GQL_HEADER_X_TENANT=acme
//	                  becomes "X-Tenant: acme"
func LoadGQLFromEnv() GQL {
	return GQL{
		Endpoint:         getEnv("GQL_ENDPOINT", "http://localhost:8080/graphql"),
		WSEndpoint:       getEnv("GQL_WS_ENDPOINT", ""),
		UseGETForQueries: getEnvBool("GQL_USE_GET", false),
		Timeout:          getEnvDuration("GQL_TIMEOUT", 30*time.Second),
		Headers:          getEnvHeaders("GQL_HEADER_"),
	}
}

// Validate checks the configuration before a client is built from it.
func (c GQL) Validate() *errx.Error {
	if c.Endpoint == "" {
		return errorRegistry.NewWithMessage(ErrInvalid, "endpoint is required")
	}
	if err := validateURL(c.Endpoint, "http", "https"); err != nil {
		return err.WithDetail("endpoint", c.Endpoint)
	}
	if c.WSEndpoint != "" {
		if err := validateURL(c.WSEndpoint, "ws", "wss"); err != nil {
			return err.WithDetail("ws_endpoint", c.WSEndpoint)
		}
	}
	if c.Timeout < 0 {
		return errorRegistry.NewWithMessage(ErrInvalid, "timeout cannot be negative").
			WithDetail("timeout", c.Timeout.String())
	}
	return nil
}

// Header returns the configured headers as an http.Header
func (c GQL) Header() http.Header {
	h := make(http.Header, len(c.Headers))
	for k, v := range c.Headers {
		h.Set(k, v)
	}
	return h
}

func validateURL(raw string, schemes ...string) *errx.Error {
	u, err := url.Parse(raw)
	if err != nil {
		return errorRegistry.NewWithMessage(ErrInvalid, "endpoint is not a valid URL")
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return errorRegistry.NewWithMessage(ErrInvalid,
		"endpoint scheme must be one of "+strings.Join(schemes, ", "))
}
