package gql

import (
	"context"
	"net/http"

	"github.com/Abraxas-365/gqlx/pkg/cancelx"
	"github.com/google/uuid"
)

// ============================================================================
// Correlation IDs
// ============================================================================

// CorrelationID groups the requests of one logical client interaction,
// for example every call a single UI view issues. Cancelling by
// correlation id tears the whole group down at once.
type CorrelationID string

func NewCorrelationID() CorrelationID  { return CorrelationID(uuid.NewString()) }
func (c CorrelationID) String() string { return string(c) }
func (c CorrelationID) IsEmpty() bool  { return string(c) == "" }

// ============================================================================
// Context Entries
// ============================================================================

// The pipeline carries exactly three pieces of out-of-band state in
// the context: the cancellation signal, the correlation id, and extra
// outbound headers. The key type is unexported, so these accessors are
// the only way in or out; there is no open string-keyed bag to poison.

type contextKey string

const (
	cancelSignalKey  contextKey = "gqlx:cancel_signal"
	correlationIDKey contextKey = "gqlx:correlation_id"
	headerKey        contextKey = "gqlx:header"
)

// WithCancelSignal attaches a cancellation signal to the context. The
// deduplication middleware fires it when a newer duplicate arrives;
// transports abort the in-flight exchange when it fires.
func WithCancelSignal(ctx context.Context, sig *cancelx.Signal) context.Context {
	return context.WithValue(ctx, cancelSignalKey, sig)
}

// CancelSignalFrom extracts the cancellation signal, if any
func CancelSignalFrom(ctx context.Context) (*cancelx.Signal, bool) {
	sig, ok := ctx.Value(cancelSignalKey).(*cancelx.Signal)
	return sig, ok && sig != nil
}

// WithCorrelationID attaches a correlation id to the context
func WithCorrelationID(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFrom extracts the correlation id entry. ok reports
// presence of the entry, not usability: an id that is present but
// empty is a caller bug, and the deduplication stage rejects it as a
// context error rather than guessing.
func CorrelationIDFrom(ctx context.Context) (CorrelationID, bool) {
	id, ok := ctx.Value(correlationIDKey).(CorrelationID)
	return id, ok
}

// WithHeader attaches extra outbound headers to the context. Transports
// merge them into the wire request after their own defaults, so a
// context header wins over a transport default of the same name.
func WithHeader(ctx context.Context, header http.Header) context.Context {
	return context.WithValue(ctx, headerKey, header)
}

// HeaderFrom extracts the extra outbound headers, if any
func HeaderFrom(ctx context.Context) (http.Header, bool) {
	h, ok := ctx.Value(headerKey).(http.Header)
	return h, ok && len(h) > 0
}
