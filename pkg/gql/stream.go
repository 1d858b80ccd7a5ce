package gql

import "io"

// ============================================================================
// Response Stream - pull-based result delivery
// ============================================================================

// ResponseStream delivers execution results one at a time. Queries and
// mutations produce a stream of at most one response; subscriptions
// keep producing until the server completes or the consumer closes.
//
// A stream that ends without ever yielding a response is how the
// pipeline reports a cancelled request: the result simply never
// arrives, and no error is surfaced for it.
type ResponseStream interface {
	// Next returns the next response, or io.EOF when done
	Next() (*Response, error)

	// Close releases resources and aborts any pending delivery
	Close() error
}

// ResponseStreamFunc is an adapter to use functions as ResponseStream
type ResponseStreamFunc func() (*Response, error)

func (f ResponseStreamFunc) Next() (*Response, error) {
	return f()
}

func (f ResponseStreamFunc) Close() error {
	return nil
}

// SliceStream returns a stream that yields the given responses in order
func SliceStream(responses ...*Response) ResponseStream {
	i := 0
	return ResponseStreamFunc(func() (*Response, error) {
		if i >= len(responses) {
			return nil, io.EOF
		}
		resp := responses[i]
		i++
		return resp, nil
	})
}

// EmptyStream returns a stream that is already exhausted. The pipeline
// uses it as the visible result of a cancelled request.
func EmptyStream() ResponseStream {
	return ResponseStreamFunc(func() (*Response, error) {
		return nil, io.EOF
	})
}

// Collect drains a stream into a slice and closes it
func Collect(stream ResponseStream) ([]*Response, error) {
	defer stream.Close()

	var out []*Response
	for {
		resp, err := stream.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
}
