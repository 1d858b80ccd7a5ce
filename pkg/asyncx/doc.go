// Package asyncx provides small concurrency primitives for fan-out,
// racing, worker pools, timeouts and rate limiting, all with
// first-class context support.
//
// # Futures
//
// Run starts work immediately and hands back a Future to collect later:
//
//	userFut := asyncx.Run(func() (*User, error) {
//		return fetchUser(ctx, id)
//	})
//	// ... other work ...
//	user, err := userFut.Await()
//
// # Fan-out
//
// All runs several operations concurrently and keeps the results in
// input order, failing fast on the first error:
//
//	streams, err := asyncx.All(ctx,
//		func(ctx context.Context) (gql.ResponseStream, error) { return client.Handle(ctx, reqA) },
//		func(ctx context.Context) (gql.ResponseStream, error) { return client.Handle(ctx, reqB) },
//	)
//
// AllSettled is the variant that never short-circuits; every operation
// settles and the caller inspects each Result.
//
// # Racing
//
// Race returns the first outcome and cancels the rest through the
// shared derived context. The canonical use here is pitting a network
// round trip against an out-of-band cancellation watcher:
//
//	resp, err := asyncx.Race(ctx, doRequest, watchCancel)
//
// # Pools
//
// Pool bounds the fan-out when the item count is unbounded but the far
// side is not:
//
//	hashes, err := asyncx.Pool(ctx, 4, files, hashFile)
//
// # Rate limiting
//
// Debounced collapses bursts into one trailing call, which suits
// type-ahead search against a remote API:
//
//	search := asyncx.Debounced(300*time.Millisecond, runQuery)
//	for keystroke := range input {
//		_ = keystroke
//		search()
//	}
//
// Throttled is the leading-edge counterpart: at most one call per
// interval, extras dropped.
package asyncx
