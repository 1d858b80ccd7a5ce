package asyncx

import (
	"context"
	"sync"
	"time"
)

// ─── Future ──────────────────────────────────────────────────────────────────

// result holds the outcome of an async computation.
type result[T any] struct {
	value T
	err   error
}

// Future is a value that is still being computed. Create one with Run
// and collect it with Await.
type Future[T any] struct {
	ch  chan result[T]
	res *result[T]
	mu  sync.Mutex
}

// Run starts fn in a goroutine immediately and returns a Future for
// its result.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan result[T], 1)}
	go func() {
		v, err := fn()
		f.ch <- result[T]{value: v, err: err}
	}()
	return f
}

// Await blocks until the future resolves. The result is cached, so
// Await can be called any number of times and from any goroutine.
func (f *Future[T]) Await() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.res == nil {
		r := <-f.ch
		f.res = &r
	}
	return f.res.value, f.res.err
}

// ─── Fire-and-forget ─────────────────────────────────────────────────────────

// Do runs fn in a goroutine and does not track it.
func Do(fn func()) {
	go fn()
}

// DoCtx runs fn in a goroutine unless ctx is already done.
func DoCtx(ctx context.Context, fn func(context.Context)) {
	go func() {
		select {
		case <-ctx.Done():
		default:
			fn(ctx)
		}
	}()
}

// ─── All / Race ──────────────────────────────────────────────────────────────

// All runs every fn concurrently and collects the results in input
// order. The first error wins, but every goroutine is still awaited so
// nothing leaks past the return.
func All[T any](ctx context.Context, fns ...func(context.Context) (T, error)) ([]T, error) {
	results := make([]T, len(fns))
	errs := make([]error, len(fns))

	var wg sync.WaitGroup
	wg.Add(len(fns))
	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			defer wg.Done()
			results[i], errs[i] = fn(ctx)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// AllSettled runs every fn concurrently and always returns one Result
// per fn, never short-circuiting on errors.
func AllSettled[T any](ctx context.Context, fns ...func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(fns))

	var wg sync.WaitGroup
	wg.Add(len(fns))
	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			defer wg.Done()
			v, err := fn(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}()
	}
	wg.Wait()
	return results
}

// Result is the settled outcome of one async operation.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the result carries no error.
func (r Result[T]) OK() bool { return r.Err == nil }

// Race runs every fn concurrently and returns the first outcome that
// arrives, success or failure. The derived context handed to every fn
// is cancelled as soon as a winner exists, which is how the losers
// learn to abandon their work; they are left to drain on their own.
func Race[T any](ctx context.Context, fns ...func(context.Context) (T, error)) (T, error) {
	ch := make(chan result[T], len(fns))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, fn := range fns {
		fn := fn
		go func() {
			v, err := fn(ctx)
			ch <- result[T]{value: v, err: err}
		}()
	}

	r := <-ch
	return r.value, r.err
}

// ─── Map / ForEach ───────────────────────────────────────────────────────────

// Map transforms every item concurrently and returns the outputs in
// input order. The first error wins after all goroutines finish.
func Map[T any, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		i, item := i, item
		go func() {
			defer wg.Done()
			results[i], errs[i] = fn(ctx, item)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ForEach runs fn over every item concurrently for its side effects
// and returns the first error once all goroutines finish.
func ForEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error) error {
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		i, item := i, item
		go func() {
			defer wg.Done()
			errs[i] = fn(ctx, item)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ─── Worker pool ─────────────────────────────────────────────────────────────

// Pool is Map with bounded concurrency: at most workers goroutines
// process the items, and the results come back in input order. Use it
// when unbounded fan-out would overwhelm the far side.
func Pool[T any, R any](
	ctx context.Context,
	workers int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}

	type indexed struct {
		i    int
		item T
	}

	work := make(chan indexed, len(items))
	for i, item := range items {
		work <- indexed{i: i, item: item}
	}
	close(work)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for w := range work {
				select {
				case <-ctx.Done():
					errs[w.i] = ctx.Err()
					return
				default:
					results[w.i], errs[w.i] = fn(ctx, w.item)
				}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ─── Timeout ─────────────────────────────────────────────────────────────────

// WithTimeout runs fn under a deadline of d and returns
// context.DeadlineExceeded when fn does not make it. fn keeps running
// in its goroutine after a timeout; it is expected to watch its
// context and stop.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ─── Debounce / Throttle ─────────────────────────────────────────────────────

// Debounced wraps fn so it only runs once calls stop arriving for at
// least wait; every call resets the timer. Safe for concurrent use.
func Debounced(wait time.Duration, fn func()) func() {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(wait, fn)
	}
}

// Throttled wraps fn so it runs at most once per interval; calls
// inside the interval are dropped. Safe for concurrent use.
func Throttled(interval time.Duration, fn func()) func() {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(last) >= interval {
			last = time.Now()
			go fn()
		}
	}
}

// ─── Once ────────────────────────────────────────────────────────────────────

// Once wraps fn so it executes at most once; every caller receives the
// cached outcome.
func Once[T any](fn func() (T, error)) func() (T, error) {
	var (
		once sync.Once
		val  T
		err  error
	)
	return func() (T, error) {
		once.Do(func() {
			val, err = fn()
		})
		return val, err
	}
}
