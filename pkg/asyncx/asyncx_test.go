package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/gqlx/pkg/asyncx"
)

func TestFutureAwaitTwice(t *testing.T) {
	var calls atomic.Int32
	fut := asyncx.Run(func() (int, error) {
		calls.Add(1)
		return 42, nil
	})

	for i := 0; i < 2; i++ {
		v, err := fut.Await()
		if err != nil {
			t.Fatalf("Await: %v", err)
		}
		if v != 42 {
			t.Fatalf("Await = %d, want 42", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fn ran %d times, want 1", got)
	}
}

func TestAllPreservesOrder(t *testing.T) {
	got, err := asyncx.All(context.Background(),
		func(context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			return "slow", nil
		},
		func(context.Context) (string, error) { return "fast", nil },
	)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if got[0] != "slow" || got[1] != "fast" {
		t.Fatalf("All = %v, want input order", got)
	}
}

func TestAllFirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	_, err := asyncx.All(context.Background(),
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("All err = %v, want %v", err, boom)
	}
}

func TestAllSettledNeverShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	results := asyncx.AllSettled(context.Background(),
		func(context.Context) (int, error) { return 0, boom },
		func(context.Context) (int, error) { return 7, nil },
	)
	if results[0].OK() {
		t.Fatal("results[0] should carry the error")
	}
	if !results[1].OK() || results[1].Value != 7 {
		t.Fatalf("results[1] = %+v, want OK 7", results[1])
	}
}

func TestRaceFirstOutcomeWins(t *testing.T) {
	v, err := asyncx.Race(context.Background(),
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(time.Second):
				return "slow", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
		func(context.Context) (string, error) { return "fast", nil },
	)
	if err != nil {
		t.Fatalf("Race: %v", err)
	}
	if v != "fast" {
		t.Fatalf("Race = %q, want fast", v)
	}
}

func TestRaceCancelsLosers(t *testing.T) {
	loserDone := make(chan struct{})
	_, err := asyncx.Race(context.Background(),
		func(ctx context.Context) (int, error) {
			defer close(loserDone)
			<-ctx.Done()
			return 0, ctx.Err()
		},
		func(context.Context) (int, error) { return 1, nil },
	)
	if err != nil {
		t.Fatalf("Race: %v", err)
	}
	select {
	case <-loserDone:
	case <-time.After(time.Second):
		t.Fatal("loser never saw cancellation")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 20)

	_, err := asyncx.Pool(context.Background(), 3, items, func(context.Context, int) (int, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if p := peak.Load(); p > 3 {
		t.Fatalf("peak concurrency %d, want <= 3", p)
	}
}

func TestWithTimeout(t *testing.T) {
	_, err := asyncx.WithTimeout(context.Background(), 10*time.Millisecond,
		func(ctx context.Context) (int, error) {
			select {
			case <-time.After(time.Second):
				return 1, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestDebouncedCollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	fn := asyncx.Debounced(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		fn()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Fatalf("debounced fn ran %d times, want 1", got)
	}
}

func TestOnce(t *testing.T) {
	var calls atomic.Int32
	fn := asyncx.Once(func() (int, error) {
		calls.Add(1)
		return 9, nil
	})

	for i := 0; i < 3; i++ {
		v, err := fn()
		if err != nil || v != 9 {
			t.Fatalf("fn = (%d, %v), want (9, nil)", v, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fn ran %d times, want 1", got)
	}
}
