package gql

import (
	"context"
	"io"
)

// ============================================================================
// Client - the assembled pipeline
// ============================================================================

// Client runs requests through a middleware chain ending at a terminal
// handler. The zero value is not usable; build one with NewClient.
type Client struct {
	handler Handler
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	middleware []Middleware
}

// WithMiddleware adds middleware to the chain, outermost first
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *clientConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// NewClient assembles a client around a terminal handler, usually a
// transport or a Split over several transports
func NewClient(terminal Handler, opts ...ClientOption) *Client {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := terminal
	if len(cfg.middleware) > 0 {
		handler = Chain(cfg.middleware...)(terminal)
	}

	return &Client{handler: handler}
}

// Do runs a request through the pipeline and returns its result stream.
// Callers that only care about one-shot operations can use Query or
// Mutate instead.
func (c *Client) Do(ctx context.Context, req *Request) (ResponseStream, error) {
	if req == nil || req.Operation == nil {
		return nil, ErrRequestFormat("request has no operation")
	}
	return c.handler.Handle(ctx, req)
}

// Query executes a query document and returns its single response
func (c *Client) Query(ctx context.Context, document string, vars map[string]any) (*Response, error) {
	return c.one(ctx, NewRequest(NewQuery(document)).WithVariables(vars))
}

// Mutate executes a mutation document and returns its single response
func (c *Client) Mutate(ctx context.Context, document string, vars map[string]any) (*Response, error) {
	return c.one(ctx, NewRequest(NewMutation(document)).WithVariables(vars))
}

// Subscribe executes a subscription request and returns its stream.
// The stream stays open until the server completes it or the caller
// closes it.
func (c *Client) Subscribe(ctx context.Context, req *Request) (ResponseStream, error) {
	return c.Do(ctx, req)
}

// one drains a one-shot operation's stream down to its single response.
// A stream that ends empty means the request was cancelled before its
// result arrived; that silence is the middleware contract, but a caller
// awaiting exactly one response needs a concrete outcome, so it becomes
// a cancellation error here.
func (c *Client) one(ctx context.Context, req *Request) (*Response, error) {
	stream, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	resp, err := stream.Next()
	if err == io.EOF {
		return nil, ErrCancelled("request was superseded before completing")
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
