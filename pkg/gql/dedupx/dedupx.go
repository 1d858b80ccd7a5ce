// Package dedupx is the deduplication stage of the request pipeline.
// It enforces one rule: per request key and per correlation id, only
// the most recently issued request may deliver results. An older
// in-flight duplicate is cancelled at the transport level the moment
// its successor arrives, and whatever it still produces afterwards is
// silently discarded.
//
// Cancellation is not an error. A superseded request's stream simply
// ends; callers awaiting a single response observe the cancellation
// outcome only through the client's one-shot helpers.
package dedupx

import (
	"context"
	"io"
	"sync"

	"github.com/Abraxas-365/gqlx/pkg/cancelx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
	"github.com/Abraxas-365/gqlx/pkg/logx"
)

// Deduplicator owns the registry and produces the pipeline middleware.
// One deduplicator is normally shared by every client that should
// deduplicate against the same in-flight set.
type Deduplicator struct {
	registry *Registry
	keyFunc  KeyFunc
}

// New creates a deduplicator
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{
		registry: NewRegistry(),
		keyFunc:  (*gql.Request).Key,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Middleware returns the pipeline stage enforcing the one-live-request
// rule
func (d *Deduplicator) Middleware() gql.Middleware {
	return func(next gql.Handler) gql.Handler {
		return gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
			return d.handle(ctx, req, next)
		})
	}
}

// CancelAll cancels every in-flight request and clears the registry.
// Used for teardown, for example when the owning client shuts down.
func (d *Deduplicator) CancelAll() {
	d.registry.CancelAll()
}

// Active returns the number of in-flight requests currently tracked
func (d *Deduplicator) Active() int {
	return d.registry.Active()
}

func (d *Deduplicator) handle(ctx context.Context, req *gql.Request, next gql.Handler) (gql.ResponseStream, error) {
	// The correlation entry is optional, but if a caller attached one
	// it has to be usable. An empty id would silently disable
	// correlation-based supersession, so it is rejected instead.
	corr, present := gql.CorrelationIDFrom(ctx)
	if present && corr.IsEmpty() {
		return nil, gql.ErrContext("correlation id entry is present but empty")
	}

	key, kerr := d.keyFunc(req)
	if kerr != nil {
		return nil, kerr
	}

	sig := cancelx.NewSignal()
	if d.registry.Replace(key, corr, sig) {
		logx.Debugf("dedupx: superseded in-flight request key=%s correlation=%s", key, corr)
	}

	finish := func() { d.registry.Release(key, corr, sig) }

	stream, err := next.Handle(gql.WithCancelSignal(ctx, sig), req)
	if err != nil {
		// The downstream stage failed before producing a stream.
		// Cleanup still runs, and if this request was superseded while
		// the call was in flight the failure is part of the
		// cancellation outcome and stays silent.
		finish()
		if sig.IsCancelled() {
			return gql.EmptyStream(), nil
		}
		return nil, err
	}

	return &dedupStream{inner: stream, sig: sig, finish: finish}, nil
}

// dedupStream filters a downstream response stream against the
// request's cancellation signal. The signal is checked before pulling
// the next element and again before emitting it, so after cancellation
// nothing associated with this request is ever delivered, buffered
// elements included.
type dedupStream struct {
	inner  gql.ResponseStream
	sig    *cancelx.Signal
	once   sync.Once
	finish func()
}

func (s *dedupStream) Next() (*gql.Response, error) {
	if s.sig.IsCancelled() {
		return nil, s.terminate()
	}

	resp, err := s.inner.Next()
	switch {
	case err == io.EOF:
		s.release()
		return nil, io.EOF
	case err != nil:
		s.release()
		if s.sig.IsCancelled() {
			// Errors produced after cancellation are part of the
			// abort, not failures. Swallow and end the stream.
			return nil, io.EOF
		}
		return nil, err
	case s.sig.IsCancelled():
		// Cancelled while waiting for this element; drop it.
		return nil, s.terminate()
	}
	return resp, nil
}

func (s *dedupStream) Close() error {
	s.release()
	return s.inner.Close()
}

// release runs the registry cleanup exactly once
func (s *dedupStream) release() {
	s.once.Do(s.finish)
}

// terminate ends the stream after cancellation: cleanup, stop
// consuming, close the producer so it can reclaim its resources
func (s *dedupStream) terminate() error {
	s.release()
	s.inner.Close()
	return io.EOF
}
