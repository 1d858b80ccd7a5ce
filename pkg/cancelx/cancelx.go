// Package cancelx provides a one-shot, shareable cancellation signal.
//
// A Signal is written by whoever decides an operation is obsolete and read
// by whoever carries that operation out. Unlike context.Context it has no
// values, no deadlines and no parent tree: it is a single bit that flips
// once, can be queried, and can be awaited without ever missing the flip.
package cancelx

import (
	"context"
	"sync"
)

// Signal is a single-fire cancellation primitive. It starts pending and
// transitions to cancelled exactly once; the transition is observable
// through IsCancelled and through the channel returned by Done.
//
// The zero value is not usable; create signals with NewSignal.
type Signal struct {
	once sync.Once
	done chan struct{}
}

// NewSignal creates a pending signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Cancel fires the signal. The first call closes the signal; later calls
// are no-ops.
func (s *Signal) Cancel() {
	s.once.Do(func() { close(s.done) })
}

// IsCancelled reports whether Cancel has been called. Once true it stays
// true.
func (s *Signal) IsCancelled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the signal fires. The channel
// never delivers a value, it only closes, so a receiver that starts
// waiting after cancellation is released immediately.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Context derives a context that is cancelled when the signal fires or
// when parent ends, whichever happens first. The returned CancelFunc
// releases the internal watcher and must be called once the guarded
// operation finishes.
func (s *Signal) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
