// Package authx attaches credentials to outgoing requests. A token
// source produces the credential, the middleware places it in the
// request's header entry, and both transports send it: the HTTP
// transport as a request header, the websocket transport during the
// handshake.
//
// Header values the caller set explicitly always win; the middleware
// only fills the credential in when it is absent.
package authx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
)

// TokenSource produces the credential attached to each request. It is
// called before any network traffic, so an error here fails the
// request without touching the server.
type TokenSource func(ctx context.Context) (string, *errx.Error)

// StaticToken returns a source that always yields the same token
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, *errx.Error) {
		return token, nil
	}
}

// Auth injects credentials into the request pipeline
type Auth struct {
	source TokenSource
	scheme string
	header string
	leeway time.Duration

	// mu guards the token cache when expiry refresh is enabled.
	// Refreshes are single flight: concurrent requests wait for the
	// one that is already fetching.
	mu     sync.Mutex
	cached string
	expiry time.Time
}

// New creates the middleware around a token source
func New(source TokenSource, opts ...Option) *Auth {
	a := &Auth{
		source: source,
		scheme: "Bearer",
		header: "Authorization",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Middleware returns the pipeline stage. It resolves the token, merges
// it into the context header entry and hands off downstream.
func (a *Auth) Middleware() gql.Middleware {
	return func(next gql.Handler) gql.Handler {
		return gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
			header, ok := gql.HeaderFrom(ctx)
			if ok && header.Get(a.header) != "" {
				return next.Handle(ctx, req)
			}

			token, xerr := a.token(ctx)
			if xerr != nil {
				return nil, xerr
			}

			merged := http.Header{}
			for key, values := range header {
				merged[key] = append([]string(nil), values...)
			}
			merged.Set(a.header, a.credential(token))
			return next.Handle(gql.WithHeader(ctx, merged), req)
		})
	}
}

func (a *Auth) credential(token string) string {
	if a.scheme == "" {
		return token
	}
	return a.scheme + " " + token
}

func (a *Auth) token(ctx context.Context) (string, *errx.Error) {
	if a.leeway <= 0 {
		return a.fetch(ctx)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != "" && time.Now().Add(a.leeway).Before(a.expiry) {
		return a.cached, nil
	}

	token, xerr := a.fetch(ctx)
	if xerr != nil {
		return "", xerr
	}
	if exp, ok := tokenExpiry(token); ok {
		a.cached = token
		a.expiry = exp
	} else {
		a.cached = ""
	}
	return token, nil
}

func (a *Auth) fetch(ctx context.Context) (string, *errx.Error) {
	token, xerr := a.source(ctx)
	if xerr != nil {
		return "", xerr
	}
	if token == "" {
		return "", errorRegistry.New(ErrEmptyToken)
	}
	return token, nil
}

// tokenExpiry reads the exp claim without verifying the signature.
// The client only needs the timestamp; validation is the server's job.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
