package authx

import "time"

// Option configures the auth middleware
type Option func(*Auth)

// WithScheme sets the prefix in front of the token. The default is
// "Bearer"; an empty scheme sends the token verbatim.
func WithScheme(scheme string) Option {
	return func(a *Auth) {
		a.scheme = scheme
	}
}

// WithHeaderName sets the header the credential travels in. The
// default is Authorization.
func WithHeaderName(name string) Option {
	return func(a *Auth) {
		a.header = name
	}
}

// WithExpiryRefresh caches tokens and consults their exp claim,
// fetching a fresh one when the cached token expires within leeway.
// Tokens without a readable exp claim are fetched on every request.
func WithExpiryRefresh(leeway time.Duration) Option {
	return func(a *Auth) {
		a.leeway = leeway
	}
}
