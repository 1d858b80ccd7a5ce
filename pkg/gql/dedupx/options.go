package dedupx

import (
	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
)

// KeyFunc derives the deduplication key of a request
type KeyFunc func(*gql.Request) (string, *errx.Error)

// Option configures the deduplicator
type Option func(*Deduplicator)

// WithRegistry shares an existing registry instead of creating a
// private one. Several pipelines built over the same registry
// deduplicate against each other.
func WithRegistry(r *Registry) Option {
	return func(d *Deduplicator) {
		d.registry = r
	}
}

// WithKeyFunc overrides the request key derivation
func WithKeyFunc(fn KeyFunc) Option {
	return func(d *Deduplicator) {
		d.keyFunc = fn
	}
}
