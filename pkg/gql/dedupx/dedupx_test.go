package dedupx_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/Abraxas-365/gqlx/pkg/cancelx"
	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
	"github.com/Abraxas-365/gqlx/pkg/gql/dedupx"
)

// capturingHandler is a terminal that records the signal attached to
// each request and answers with a single canned response.
type capturingHandler struct {
	mu      sync.Mutex
	signals []*cancelx.Signal
}

func (h *capturingHandler) Handle(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
	sig, _ := gql.CancelSignalFrom(ctx)
	h.mu.Lock()
	h.signals = append(h.signals, sig)
	h.mu.Unlock()
	return gql.SliceStream(&gql.Response{Data: json.RawMessage(`{"ok":true}`)}), nil
}

func (h *capturingHandler) signal(i int) *cancelx.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signals[i]
}

// --- Registry tests ---

func TestRegistryReplaceCancelsOccupant(t *testing.T) {
	r := dedupx.NewRegistry()
	a := cancelx.NewSignal()
	b := cancelx.NewSignal()

	if r.Replace("k1", "", a) {
		t.Fatal("first registration reported a supersession")
	}
	if !r.Replace("k1", "", b) {
		t.Fatal("second registration did not report a supersession")
	}
	if !a.IsCancelled() {
		t.Fatal("occupant was not cancelled on replacement")
	}
	if b.IsCancelled() {
		t.Fatal("replacement signal must stay live")
	}
}

func TestRegistryReleaseIsIdentityGated(t *testing.T) {
	r := dedupx.NewRegistry()
	a := cancelx.NewSignal()
	b := cancelx.NewSignal()

	r.Replace("k1", "q1", a)
	r.Replace("k1", "q1", b)

	// A's late cleanup arrives after B took both slots over. It must
	// not evict B.
	r.Release("k1", "q1", a)
	if r.Active() != 1 {
		t.Fatalf("stale release evicted the successor, active=%d", r.Active())
	}

	r.Release("k1", "q1", b)
	if r.Active() != 0 {
		t.Fatalf("owner release left entries behind, active=%d", r.Active())
	}
}

func TestRegistryCancelAll(t *testing.T) {
	r := dedupx.NewRegistry()
	a := cancelx.NewSignal()
	b := cancelx.NewSignal()
	r.Replace("k1", "q1", a)
	r.Replace("k2", "", b)

	r.CancelAll()

	if !a.IsCancelled() || !b.IsCancelled() {
		t.Fatal("CancelAll left a live signal")
	}
	if r.Active() != 0 {
		t.Fatalf("registry not empty after CancelAll, active=%d", r.Active())
	}
}

// --- Middleware supersession tests ---

func TestSupersedeOnDuplicateKey(t *testing.T) {
	d := dedupx.New()
	terminal := &capturingHandler{}
	h := d.Middleware()(terminal)

	req := gql.NewRequest(gql.NewQuery("query { viewer { id } }"))

	streamA, err := h.Handle(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	streamB, err := h.Handle(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if !terminal.signal(0).IsCancelled() {
		t.Fatal("first request was not cancelled by its duplicate")
	}
	if terminal.signal(1).IsCancelled() {
		t.Fatal("second request must stay live")
	}

	// The superseded stream still holds a buffered response; it must
	// end silently instead of delivering it.
	if resp, err := streamA.Next(); err != io.EOF {
		t.Fatalf("superseded stream emitted %v (%v)", resp, err)
	}

	resp, err := streamB.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !resp.HasData() {
		t.Fatal("winning request lost its response")
	}
	streamB.Close()
}

func TestSupersedeOnCorrelationAcrossKeys(t *testing.T) {
	d := dedupx.New()
	terminal := &capturingHandler{}
	h := d.Middleware()(terminal)

	ctx := gql.WithCorrelationID(context.Background(), gql.CorrelationID("live-query-1"))

	// Same logical subscription, different variables, so the keys
	// differ and only the correlation id links the two.
	first := gql.NewRequest(gql.NewQuery("query Feed($p: Int!) { feed }")).WithVariable("p", 1)
	second := gql.NewRequest(gql.NewQuery("query Feed($p: Int!) { feed }")).WithVariable("p", 2)

	streamA, err := h.Handle(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Handle(ctx, second); err != nil {
		t.Fatal(err)
	}

	if !terminal.signal(0).IsCancelled() {
		t.Fatal("correlation match did not cancel the prior request")
	}
	if resp, err := streamA.Next(); err != io.EOF {
		t.Fatalf("superseded stream emitted %v (%v)", resp, err)
	}
}

func TestSupersedeCancelsBothOccupants(t *testing.T) {
	d := dedupx.New()
	terminal := &capturingHandler{}
	h := d.Middleware()(terminal)

	corr := gql.WithCorrelationID(context.Background(), gql.CorrelationID("q1"))

	// First request owns the correlation slot, second owns the key
	// slot. A third request matching both must cancel both.
	byCorr := gql.NewRequest(gql.NewQuery("query { a }"))
	byKey := gql.NewRequest(gql.NewQuery("query { b }"))

	if _, err := h.Handle(corr, byCorr); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Handle(context.Background(), byKey); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Handle(corr, gql.NewRequest(gql.NewQuery("query { b }"))); err != nil {
		t.Fatal(err)
	}

	if !terminal.signal(0).IsCancelled() {
		t.Fatal("correlation occupant survived")
	}
	if !terminal.signal(1).IsCancelled() {
		t.Fatal("key occupant survived")
	}
	if terminal.signal(2).IsCancelled() {
		t.Fatal("newest request must stay live")
	}
}

func TestStaleCleanupKeepsSuccessorRegistered(t *testing.T) {
	d := dedupx.New()
	terminal := &capturingHandler{}
	h := d.Middleware()(terminal)

	req := gql.NewRequest(gql.NewQuery("query { viewer }"))

	streamA, _ := h.Handle(context.Background(), req)
	streamB, _ := h.Handle(context.Background(), req)

	// A finishes after B already replaced it. Draining A runs A's
	// cleanup, which must leave B's registration alone.
	if _, err := streamA.Next(); err != io.EOF {
		t.Fatal("superseded stream should be silent")
	}
	if d.Active() != 1 {
		t.Fatalf("stale cleanup removed the live entry, active=%d", d.Active())
	}

	if _, err := gql.Collect(streamB); err != nil {
		t.Fatal(err)
	}
	if d.Active() != 0 {
		t.Fatalf("registry not empty after the live request finished, active=%d", d.Active())
	}
}

// --- Cancellation outcome tests ---

func TestErrorAfterCancellationIsSwallowed(t *testing.T) {
	d := dedupx.New()
	terminal := gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
		sig, _ := gql.CancelSignalFrom(ctx)
		return gql.ResponseStreamFunc(func() (*gql.Response, error) {
			// The request gets superseded while the pull is in flight;
			// the aborted transport then reports a failure.
			sig.Cancel()
			return nil, gql.ErrTransport("connection aborted")
		}), nil
	})
	h := d.Middleware()(terminal)

	stream, err := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { x }")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Fatalf("post-cancellation error leaked to the caller: %v", err)
	}
	if d.Active() != 0 {
		t.Fatal("cleanup did not run after the swallowed error")
	}
}

func TestErrorWithoutCancellationPropagates(t *testing.T) {
	d := dedupx.New()
	terminal := gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
		return gql.ResponseStreamFunc(func() (*gql.Response, error) {
			return nil, gql.ErrTransport("dns failure")
		}), nil
	})
	h := d.Middleware()(terminal)

	stream, err := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { x }")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Next(); !gql.IsTransport(err) {
		t.Fatalf("expected the transport error unchanged, got %v", err)
	}
	if d.Active() != 0 {
		t.Fatal("cleanup did not run after the propagated error")
	}
}

func TestImmediateErrorAfterCancellationYieldsEmptyStream(t *testing.T) {
	d := dedupx.New()
	terminal := gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
		sig, _ := gql.CancelSignalFrom(ctx)
		sig.Cancel()
		return nil, gql.ErrTransport("request aborted before response")
	})
	h := d.Middleware()(terminal)

	stream, err := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { x }")))
	if err != nil {
		t.Fatalf("cancelled request surfaced an error: %v", err)
	}
	if _, nerr := stream.Next(); nerr != io.EOF {
		t.Fatalf("expected a silent empty stream, got %v", nerr)
	}
}

func TestImmediateErrorWithoutCancellationPropagates(t *testing.T) {
	d := dedupx.New()
	terminal := gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
		return nil, gql.ErrTransport("endpoint unreachable")
	})
	h := d.Middleware()(terminal)

	if _, err := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { x }"))); !gql.IsTransport(err) {
		t.Fatalf("expected the transport error unchanged, got %v", err)
	}
	if d.Active() != 0 {
		t.Fatal("cleanup did not run after the immediate error")
	}
}

func TestNoEmissionAfterMidStreamCancellation(t *testing.T) {
	d := dedupx.New()

	// A two-element stream; the signal fires between the emissions.
	var sig *cancelx.Signal
	pushes := []*gql.Response{
		{Data: json.RawMessage(`{"tick":1}`)},
		{Data: json.RawMessage(`{"tick":2}`)},
	}
	i := 0
	producer := gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
		sig, _ = gql.CancelSignalFrom(ctx)
		return gql.ResponseStreamFunc(func() (*gql.Response, error) {
			if i >= len(pushes) {
				return nil, io.EOF
			}
			r := pushes[i]
			i++
			return r, nil
		}), nil
	})
	h := d.Middleware()(producer)

	stream, err := h.Handle(context.Background(), gql.NewRequest(gql.NewSubscription("subscription { tick }")))
	if err != nil {
		t.Fatal(err)
	}

	first, err := stream.Next()
	if err != nil || !first.HasData() {
		t.Fatalf("expected the first push, got %v (%v)", first, err)
	}

	sig.Cancel()

	if resp, err := stream.Next(); err != io.EOF {
		t.Fatalf("emission after cancellation: %v (%v)", resp, err)
	}
	if d.Active() != 0 {
		t.Fatal("cleanup did not run after the cancelled stream ended")
	}
}

// --- Context and option tests ---

func TestEmptyCorrelationEntryIsRejected(t *testing.T) {
	d := dedupx.New()
	h := d.Middleware()(&capturingHandler{})

	ctx := gql.WithCorrelationID(context.Background(), gql.CorrelationID(""))
	if _, err := h.Handle(ctx, gql.NewRequest(gql.NewQuery("query { x }"))); !gql.IsContextError(err) {
		t.Fatalf("expected a context error, got %v", err)
	}
}

func TestKeyDerivationFailurePropagates(t *testing.T) {
	d := dedupx.New()
	h := d.Middleware()(&capturingHandler{})

	req := gql.NewRequest(gql.NewQuery("query { x }")).WithVariable("bad", func() {})
	if _, err := h.Handle(context.Background(), req); !gql.IsRequestFormat(err) {
		t.Fatalf("expected a request-format error, got %v", err)
	}
	if d.Active() != 0 {
		t.Fatal("failed request left a registry entry")
	}
}

func TestWithKeyFuncOverridesDerivation(t *testing.T) {
	// A constant key makes every request a duplicate of the previous
	// one regardless of its content.
	d := dedupx.New(dedupx.WithKeyFunc(func(*gql.Request) (string, *errx.Error) {
		return "all-the-same", nil
	}))
	terminal := &capturingHandler{}
	h := d.Middleware()(terminal)

	if _, err := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { a }"))); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { b }"))); err != nil {
		t.Fatal(err)
	}

	if !terminal.signal(0).IsCancelled() {
		t.Fatal("constant key func did not force a supersession")
	}
}

func TestWithRegistrySharesInFlightSet(t *testing.T) {
	shared := dedupx.NewRegistry()
	d1 := dedupx.New(dedupx.WithRegistry(shared))
	d2 := dedupx.New(dedupx.WithRegistry(shared))

	terminal := &capturingHandler{}
	h1 := d1.Middleware()(terminal)
	h2 := d2.Middleware()(terminal)

	req := gql.NewRequest(gql.NewQuery("query { viewer }"))
	if _, err := h1.Handle(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := h2.Handle(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	if !terminal.signal(0).IsCancelled() {
		t.Fatal("pipelines sharing a registry did not deduplicate against each other")
	}
}

func TestCancelAllSilencesEverything(t *testing.T) {
	d := dedupx.New()
	terminal := &capturingHandler{}
	h := d.Middleware()(terminal)

	streamA, _ := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { a }")))
	streamB, _ := h.Handle(context.Background(), gql.NewRequest(gql.NewQuery("query { b }")))

	d.CancelAll()

	if !terminal.signal(0).IsCancelled() || !terminal.signal(1).IsCancelled() {
		t.Fatal("CancelAll left a live signal")
	}
	if d.Active() != 0 {
		t.Fatalf("registry not empty after CancelAll, active=%d", d.Active())
	}
	if _, err := streamA.Next(); err != io.EOF {
		t.Fatal("cancelled stream still emitted")
	}
	if _, err := streamB.Next(); err != io.EOF {
		t.Fatal("cancelled stream still emitted")
	}
}

// --- Concurrency tests ---

func TestConcurrentDuplicateStorm(t *testing.T) {
	d := dedupx.New()
	terminal := gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
		return gql.SliceStream(&gql.Response{Data: json.RawMessage(`{"ok":true}`)}), nil
	})
	h := d.Middleware()(terminal)

	req := gql.NewRequest(gql.NewQuery("query { storm }"))

	const n = 64
	streams := make([]gql.ResponseStream, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := h.Handle(context.Background(), req)
			if err != nil {
				t.Error(err)
				return
			}
			streams[i] = s
		}(i)
	}
	wg.Wait()

	if active := d.Active(); active != 1 {
		t.Fatalf("expected exactly one live entry after the storm, got %d", active)
	}

	// Exactly one request survived; draining everything must deliver
	// exactly its one response and empty the registry.
	delivered := 0
	for _, s := range streams {
		out, err := gql.Collect(s)
		if err != nil {
			t.Fatal(err)
		}
		delivered += len(out)
	}
	if delivered != 1 {
		t.Fatalf("expected exactly one delivery, got %d", delivered)
	}
	if d.Active() != 0 {
		t.Fatalf("registry not empty after draining, active=%d", d.Active())
	}
}
