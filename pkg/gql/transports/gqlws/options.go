package gqlws

import (
	"time"

	"github.com/gorilla/websocket"
)

// Option configures the transport
type Option func(*Transport)

// WithDialer sets a custom websocket dialer
func WithDialer(dialer *websocket.Dialer) Option {
	return func(t *Transport) {
		t.dialer = dialer
	}
}

// WithHeader adds a header sent with the websocket handshake
func WithHeader(key, value string) Option {
	return func(t *Transport) {
		t.header.Set(key, value)
	}
}

// WithHandshakeTimeout bounds the dial and the wait for the server's
// connection_ack
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		t.handshakeTimeout = timeout
	}
}

// WithConnectionParams sets the connection_init payload, which servers
// commonly use for authentication
func WithConnectionParams(params map[string]any) Option {
	return func(t *Transport) {
		t.connectionParams = params
	}
}
