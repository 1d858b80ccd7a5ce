// Package gqlhttp is the HTTP transport of the request pipeline. It
// serializes a request into JSON, GET query parameters or a multipart
// upload body, performs the round trip racing it against the request's
// cancellation signal, and classifies the outcome into the pipeline's
// error taxonomy.
package gqlhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Abraxas-365/gqlx/pkg/asyncx"
	"github.com/Abraxas-365/gqlx/pkg/cancelx"
	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
	"github.com/Abraxas-365/gqlx/pkg/logx"
)

const DefaultTimeout = 30 * time.Second

// Transport executes GraphQL operations over HTTP
type Transport struct {
	endpoint *url.URL
	client   *http.Client
	header   http.Header
	useGET   bool
}

// New creates a transport for the given endpoint
func New(endpoint string, opts ...Option) (*Transport, *errx.Error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		e := errorRegistry.New(ErrInvalidEndpoint).WithDetail("endpoint", endpoint)
		if err != nil {
			e.WithDetail("error", err.Error())
		}
		return nil, e
	}

	t := &Transport{
		endpoint: u,
		client:   &http.Client{Timeout: DefaultTimeout},
		header:   http.Header{},
	}
	t.header.Set("User-Agent", "gqlx/1.0")
	t.header.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Handle executes the request as a terminal pipeline stage. The stream
// is lazy: the round trip happens inside the first Next call, and
// yields exactly one response.
func (t *Transport) Handle(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
	return &oneShotStream{run: func() (*gql.Response, error) {
		resp, xerr := t.Execute(ctx, req)
		if xerr != nil {
			return nil, xerr
		}
		return resp, nil
	}}, nil
}

// Handler adapts the transport into a gql.Handler value
func (t *Transport) Handler() gql.Handler {
	return gql.HandlerFunc(t.Handle)
}

// Execute performs one GraphQL round trip. Failures are classified:
// serialization problems surface before any network activity, network
// failures and bad statuses carry the endpoint and raw body, and a
// fired cancellation signal always yields the cancellation outcome,
// never a generic transport error.
func (t *Transport) Execute(ctx context.Context, req *gql.Request) (*gql.Response, *errx.Error) {
	if req == nil || req.Operation == nil {
		return nil, gql.ErrRequestFormat("request has no operation")
	}

	body := requestBody(req)
	files := Flatten(body)

	var (
		httpReq *http.Request
		xerr    *errx.Error
	)
	switch {
	case len(files) == 0 && t.useGET && req.Operation.Kind.ReadOnly():
		httpReq, xerr = t.newGetRequest(ctx, body)
	case len(files) > 0:
		httpReq, xerr = t.newMultipartRequest(ctx, body, files)
	default:
		httpReq, xerr = t.newJSONRequest(ctx, body)
	}
	if xerr != nil {
		return nil, xerr
	}

	t.mergeHeaders(ctx, httpReq)

	rt, xerr := t.roundTrip(ctx, httpReq)
	if xerr != nil {
		return nil, xerr
	}
	return classify(rt)
}

// requestBody builds the standard GraphQL request body. Empty name and
// variables are omitted rather than sent as empty fields.
func requestBody(req *gql.Request) map[string]any {
	body := map[string]any{"query": req.Operation.Document}
	if req.Operation.Name != "" {
		body["operationName"] = req.Operation.Name
	}
	if len(req.Variables) > 0 {
		body["variables"] = req.Variables
	}
	return body
}

// ============================================================================
// Request shaping
// ============================================================================

func (t *Transport) newJSONRequest(ctx context.Context, body map[string]any) (*http.Request, *errx.Error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gql.ErrRequestFormat("cannot serialize request body").
			WithDetail("error", err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, gql.ErrRequestFormat("cannot build HTTP request").
			WithDetail("error", err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// newGetRequest encodes the body's top-level fields as query
// parameters: string values pass through verbatim, everything else is
// JSON-encoded.
func (t *Transport) newGetRequest(ctx context.Context, body map[string]any) (*http.Request, *errx.Error) {
	q := url.Values{}
	for key, value := range body {
		if s, ok := value.(string); ok {
			q.Set(key, s)
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, gql.ErrRequestFormat("cannot encode query parameter").
				WithDetail("parameter", key).
				WithDetail("error", err.Error())
		}
		q.Set(key, string(encoded))
	}

	u := *t.endpoint
	if u.RawQuery == "" {
		u.RawQuery = q.Encode()
	} else {
		u.RawQuery = u.RawQuery + "&" + q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, gql.ErrRequestFormat("cannot build HTTP request").
			WithDetail("error", err.Error())
	}
	return httpReq, nil
}

func (t *Transport) newMultipartRequest(ctx context.Context, body map[string]any, files map[string]*gql.Upload) (*http.Request, *errx.Error) {
	// Uploads marshal as JSON null, so the operations field comes out
	// with every file leaf already nulled at its original path.
	operations, err := json.Marshal(body)
	if err != nil {
		return nil, gql.ErrRequestFormat("cannot serialize request body").
			WithDetail("error", err.Error())
	}

	buf, contentType, xerr := buildMultipartBody(operations, files)
	if xerr != nil {
		return nil, xerr
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint.String(), buf)
	if err != nil {
		return nil, gql.ErrRequestFormat("cannot build HTTP request").
			WithDetail("error", err.Error())
	}
	httpReq.Header.Set("Content-Type", contentType)
	return httpReq, nil
}

// mergeHeaders layers the final header set: transport defaults under
// context headers, with the shape-critical headers the request was
// built with (Content-Type) always winning.
func (t *Transport) mergeHeaders(ctx context.Context, httpReq *http.Request) {
	merged := http.Header{}
	for key, values := range t.header {
		merged[key] = append([]string(nil), values...)
	}
	if extra, ok := gql.HeaderFrom(ctx); ok {
		for key, values := range extra {
			merged[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
	for key, values := range merged {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header[key] = values
		}
	}
}

// ============================================================================
// Round trip and classification
// ============================================================================

// roundTrip carries a fully-consumed HTTP exchange. The body is read
// inside the race so a late cancellation cannot truncate it.
type roundTripResult struct {
	status int
	header http.Header
	body   []byte
}

var errAborted = errors.New("aborted by cancellation signal")

func (t *Transport) roundTrip(ctx context.Context, httpReq *http.Request) (*roundTripResult, *errx.Error) {
	sig, hasSignal := gql.CancelSignalFrom(ctx)
	if !hasSignal {
		result, err := t.doRequest(httpReq)
		if err != nil {
			return nil, gql.ErrTransport("network request failed").
				WithDetail("url", httpReq.URL.String()).
				WithDetail("error", err.Error())
		}
		return result, nil
	}

	// Already superseded, nothing to send.
	if sig.IsCancelled() {
		return nil, gql.ErrCancelled("request aborted by cancellation signal").
			WithDetail("url", httpReq.URL.String())
	}

	// Race the exchange against the signal. Race cancels its derived
	// context as soon as a winner arrives, which aborts the losing
	// side's connection.
	result, err := asyncx.Race(ctx,
		func(c context.Context) (*roundTripResult, error) {
			return t.doRequest(httpReq.WithContext(c))
		},
		func(c context.Context) (*roundTripResult, error) {
			return watchSignal(c, sig)
		},
	)
	if err != nil {
		// Whatever surfaced first, a fired signal means this request
		// was superseded and the failure is the abort itself.
		if sig.IsCancelled() {
			logx.Debugf("gqlhttp: request aborted by cancellation signal url=%s", httpReq.URL)
			return nil, gql.ErrCancelled("request aborted by cancellation signal").
				WithDetail("url", httpReq.URL.String())
		}
		return nil, gql.ErrTransport("network request failed").
			WithDetail("url", httpReq.URL.String()).
			WithDetail("error", err.Error())
	}
	return result, nil
}

func (t *Transport) doRequest(httpReq *http.Request) (*roundTripResult, error) {
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &roundTripResult{
		status: resp.StatusCode,
		header: resp.Header,
		body:   body,
	}, nil
}

func watchSignal(ctx context.Context, sig *cancelx.Signal) (*roundTripResult, error) {
	select {
	case <-sig.Done():
		return nil, errAborted
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// classify turns a finished exchange into a response or a typed error.
// A bad status and a parseable-but-empty execution result are both
// server errors; an undecodable 2xx body is a parse error. Successful
// responses carry the transport metadata for downstream inspection.
func classify(rt *roundTripResult) (*gql.Response, *errx.Error) {
	if rt.status < http.StatusOK || rt.status >= http.StatusMultipleChoices {
		parsed := &gql.Response{}
		e := gql.ErrServer("server returned an error status").
			WithDetail("status", rt.status).
			WithDetail("body", string(rt.body))
		if json.Unmarshal(rt.body, parsed) == nil && parsed.HasErrors() {
			e.WithDetail("errors", parsed.ErrorMessages())
		}
		return nil, e
	}

	var resp gql.Response
	if err := json.Unmarshal(rt.body, &resp); err != nil {
		return nil, gql.ErrParse("response body could not be decoded").
			WithDetail("status", rt.status).
			WithDetail("body", string(rt.body)).
			WithDetail("error", err.Error())
	}
	if !resp.HasData() && !resp.HasErrors() {
		return nil, gql.ErrServer("response carries neither data nor errors").
			WithDetail("status", rt.status).
			WithDetail("body", string(rt.body))
	}

	resp.Meta = &gql.ResponseMeta{Status: rt.status, Header: rt.header}
	return &resp, nil
}

// oneShotStream delivers the transport's single response lazily.
// Close before the first Next suppresses the round trip entirely.
type oneShotStream struct {
	mu   sync.Mutex
	done bool
	run  func() (*gql.Response, error)
}

func (s *oneShotStream) Next() (*gql.Response, error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil, io.EOF
	}
	s.done = true
	s.mu.Unlock()
	return s.run()
}

func (s *oneShotStream) Close() error {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	return nil
}
