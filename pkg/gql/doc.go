// Package gql provides the core types of a composable GraphQL client
// pipeline: operations, requests, responses, response streams, typed
// context entries and the middleware chain that ties them together.
//
// # Pipeline
//
// A request travels through a chain of [Middleware] stages and ends at a
// terminal [Handler], usually a transport. Each stage receives the request
// and either produces a [ResponseStream] itself or delegates to the next
// stage. [Chain] composes the stages; [Split] routes per request, which is
// how subscriptions reach a websocket transport while queries and
// mutations go over HTTP:
//
//	terminal := gql.Split(func(r *gql.Request) bool {
//	    return r.Operation.Kind == gql.KindSubscription
//	}, ws, http)
//
//	client := gql.NewClient(terminal,
//	    gql.WithMiddleware(dedup.Middleware(), auth.Middleware()),
//	)
//
// # Streams
//
// A [ResponseStream] is pulled one element at a time with Next, which
// returns [io.EOF] once the stream is exhausted. One-shot operations yield
// a single element; subscriptions yield one element per server push.
// Streams are lazy: the HTTP transport performs its round trip inside the
// first Next call.
//
// # Context entries
//
// Out-of-band request state travels in the context.Context as a small
// closed set of typed entries: the cancellation signal, the correlation
// id and the outbound headers. Each entry has a With/From accessor pair;
// absence is reported with ok == false, never with an error.
//
// # Identity
//
// [Request.Key] derives a content-based identity from the operation and a
// canonical encoding of the variables. Requests with equal keys are the
// same logical request for deduplication purposes. A [CorrelationID]
// groups requests that belong to the same logical subscription across
// variable changes, independently of the key.
//
// # Errors
//
// Every failure surfaced by the pipeline is an errx error minted from
// this package's registry: request-format, transport, server, parse,
// context and cancellation outcomes. Use the Is predicates
// ([IsCancellation], [IsServerError], ...) instead of matching codes by
// hand. The cancellation outcome is special: the deduplication middleware
// absorbs it, so above that stage a superseded request simply ends its
// stream with no emissions.
package gql
