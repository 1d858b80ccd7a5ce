package gql

import "context"

// ============================================================================
// Handler - one stage of the request pipeline
// ============================================================================

// Handler executes a request and delivers its results as a stream.
// Transports are terminal handlers; middleware wraps handlers into new
// handlers.
//
// Errors returned here are *errx.Error values from this package's
// registry (or a transport's). A nil error with an empty stream is a
// valid outcome: it is how cancelled requests surface.
type Handler interface {
	Handle(ctx context.Context, req *Request) (ResponseStream, error)
}

// HandlerFunc is an adapter to use functions as Handler
type HandlerFunc func(ctx context.Context, req *Request) (ResponseStream, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) (ResponseStream, error) {
	return f(ctx, req)
}

// ============================================================================
// Middleware - handler decorators
// ============================================================================

// Middleware wraps a handler with additional behavior
type Middleware func(next Handler) Handler

// Chain composes middleware into one. The first middleware listed is
// the outermost stage, so Chain(a, b)(h) handles a request as a(b(h)).
func Chain(middleware ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(middleware) - 1; i >= 0; i-- {
			next = middleware[i](next)
		}
		return next
	}
}

// Split routes each request to one of two handlers. Requests the
// predicate matches go to match, everything else to otherwise. This is
// how one client serves queries over HTTP and subscriptions over a
// websocket.
func Split(predicate func(*Request) bool, match, otherwise Handler) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (ResponseStream, error) {
		if predicate(req) {
			return match.Handle(ctx, req)
		}
		return otherwise.Handle(ctx, req)
	})
}
