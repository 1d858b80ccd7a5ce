package dedupx

import (
	"sync"

	"github.com/Abraxas-365/gqlx/pkg/cancelx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
)

// Registry tracks the live cancellation signal of every in-flight
// request under two indexes: the request key and, when the caller
// supplied one, the correlation id. At most one live entry per slot.
//
// The registry is safe for concurrent use. The supersede-then-register
// sequence inside Replace is one critical section, so two racing
// requests for the same slot can never both stay live.
type Registry struct {
	mu     sync.Mutex
	byKey  map[string]*cancelx.Signal
	byCorr map[gql.CorrelationID]*cancelx.Signal
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]*cancelx.Signal),
		byCorr: make(map[gql.CorrelationID]*cancelx.Signal),
	}
}

// Replace cancels the live occupants of both slots and registers sig in
// their place. Both occupants are checked independently; they may turn
// out to be the same signal, which is harmless because Cancel is
// idempotent. It returns true when at least one prior request was
// superseded.
func (r *Registry) Replace(key string, corr gql.CorrelationID, sig *cancelx.Signal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	superseded := false
	if !corr.IsEmpty() {
		if prior, ok := r.byCorr[corr]; ok {
			prior.Cancel()
			superseded = true
		}
	}
	if prior, ok := r.byKey[key]; ok {
		prior.Cancel()
		superseded = true
	}

	r.byKey[key] = sig
	if !corr.IsEmpty() {
		r.byCorr[corr] = sig
	}
	return superseded
}

// Release removes the entries that still belong to sig. The check is
// by signal identity: when a newer request has already taken a slot
// over, that slot is left untouched, so cleanup arriving late after a
// supersession can never evict the successor.
func (r *Registry) Release(key string, corr gql.CorrelationID, sig *cancelx.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byKey[key] == sig {
		delete(r.byKey, key)
	}
	if !corr.IsEmpty() && r.byCorr[corr] == sig {
		delete(r.byCorr, corr)
	}
}

// CancelAll fires every registered signal and empties both indexes
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sig := range r.byKey {
		sig.Cancel()
	}
	for _, sig := range r.byCorr {
		sig.Cancel()
	}
	r.byKey = make(map[string]*cancelx.Signal)
	r.byCorr = make(map[gql.CorrelationID]*cancelx.Signal)
}

// Active returns the number of requests currently tracked by key
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}
