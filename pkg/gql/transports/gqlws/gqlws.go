// Package gqlws is the subscription transport of the request pipeline.
// It speaks the client side of the graphql-transport-ws protocol: one
// websocket connection per subscription, an init/ack handshake, then a
// stream of next payloads until the server completes or the request's
// cancellation signal tears the connection down.
package gqlws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Abraxas-365/gqlx/pkg/cancelx"
	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
	"github.com/Abraxas-365/gqlx/pkg/logx"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second

	// Subprotocol is the websocket subprotocol this transport speaks
	Subprotocol = "graphql-transport-ws"
)

// Protocol message types
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Transport executes subscription operations over a websocket. It is a
// terminal pipeline handler; non-subscription operations are rejected
// so a Split over kinds stays honest.
type Transport struct {
	url              string
	dialer           *websocket.Dialer
	header           http.Header
	handshakeTimeout time.Duration
	connectionParams map[string]any
}

// New creates a transport for the given ws:// or wss:// endpoint
func New(endpoint string, opts ...Option) (*Transport, *errx.Error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		e := errorRegistry.New(ErrInvalidEndpoint).WithDetail("endpoint", endpoint)
		if err != nil {
			e.WithDetail("error", err.Error())
		}
		return nil, e
	}

	t := &Transport{
		url:              endpoint,
		header:           http.Header{},
		handshakeTimeout: DefaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.dialer == nil {
		t.dialer = &websocket.Dialer{}
	}
	t.dialer.HandshakeTimeout = t.handshakeTimeout
	t.dialer.Subprotocols = []string{Subprotocol}
	return t, nil
}

// Handle dials a connection, performs the protocol handshake and
// starts the subscription. The returned stream yields one response per
// server push and ends when the server completes, the caller closes,
// or the request's cancellation signal fires.
func (t *Transport) Handle(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
	if req == nil || req.Operation == nil {
		return nil, gql.ErrRequestFormat("request has no operation")
	}
	if req.Operation.Kind != gql.KindSubscription {
		return nil, errorRegistry.New(ErrNotSubscription).
			WithDetail("kind", req.Operation.Kind.String())
	}

	payload, err := json.Marshal(subscribePayload{
		Query:         req.Operation.Document,
		OperationName: req.Operation.Name,
		Variables:     req.Variables,
	})
	if err != nil {
		return nil, gql.ErrRequestFormat("cannot serialize subscription payload").
			WithDetail("error", err.Error())
	}

	conn, xerr := t.handshake(ctx)
	if xerr != nil {
		return nil, xerr
	}

	id := uuid.NewString()
	if err := conn.WriteJSON(wsMessage{ID: id, Type: msgSubscribe, Payload: payload}); err != nil {
		conn.Close()
		return nil, gql.ErrTransport("cannot send subscribe message").
			WithDetail("url", t.url).
			WithDetail("error", err.Error())
	}

	sig, _ := gql.CancelSignalFrom(ctx)
	s := &subscription{
		conn: conn,
		id:   id,
		sig:  sig,
		ctx:  ctx,
		done: make(chan struct{}),
	}
	go s.watch()
	return s, nil
}

// handshake dials the endpoint and performs connection_init /
// connection_ack. Pings arriving before the ack are answered.
func (t *Transport) handshake(ctx context.Context) (*websocket.Conn, *errx.Error) {
	conn, resp, err := t.dialer.DialContext(ctx, t.url, t.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		e := gql.ErrTransport("websocket dial failed").
			WithDetail("url", t.url).
			WithDetail("error", err.Error())
		if resp != nil {
			e.WithDetail("status", resp.StatusCode)
		}
		return nil, e
	}

	var initPayload json.RawMessage
	if len(t.connectionParams) > 0 {
		raw, err := json.Marshal(t.connectionParams)
		if err != nil {
			conn.Close()
			return nil, gql.ErrRequestFormat("cannot encode connection params").
				WithDetail("error", err.Error())
		}
		initPayload = raw
	}
	if err := conn.WriteJSON(wsMessage{Type: msgConnectionInit, Payload: initPayload}); err != nil {
		conn.Close()
		return nil, gql.ErrTransport("cannot send connection_init").
			WithDetail("url", t.url).
			WithDetail("error", err.Error())
	}

	conn.SetReadDeadline(time.Now().Add(t.handshakeTimeout))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return nil, gql.ErrTransport("no connection_ack from server").
				WithDetail("url", t.url).
				WithDetail("error", err.Error())
		}
		switch msg.Type {
		case msgConnectionAck:
			conn.SetReadDeadline(time.Time{})
			return conn, nil
		case msgPing:
			conn.WriteJSON(wsMessage{Type: msgPong})
		default:
			// Anything else before the ack is a server quirk; keep
			// waiting until the deadline decides.
		}
	}
}

// subscription is one live subscription stream over its own connection
type subscription struct {
	conn *websocket.Conn
	id   string
	sig  *cancelx.Signal
	ctx  context.Context

	mu     sync.Mutex
	closed bool

	// wmu serializes writes; pongs from the read loop and the
	// complete sent by Close may otherwise collide
	wmu sync.Mutex

	// lastErr is the sticky terminal outcome. Once the stream ends,
	// every further Next returns it unchanged.
	lastErr error

	done     chan struct{}
	teardown sync.Once
}

// watch tears the connection down as soon as the cancellation signal
// or the request context fires, which unblocks a pending read
func (s *subscription) watch() {
	var sigDone <-chan struct{}
	if s.sig != nil {
		sigDone = s.sig.Done()
	}
	select {
	case <-sigDone:
		logx.Debugf("gqlws: subscription %s aborted by cancellation signal", s.id)
		s.shutdown()
	case <-s.ctx.Done():
		s.shutdown()
	case <-s.done:
	}
}

func (s *subscription) Next() (*gql.Response, error) {
	if s.lastErr != nil {
		return nil, s.lastErr
	}

	for {
		if s.sig != nil && s.sig.IsCancelled() {
			s.shutdown()
			return nil, s.end(gql.ErrCancelled("subscription aborted by cancellation signal"))
		}

		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.shutdown()
			switch {
			case s.sig != nil && s.sig.IsCancelled():
				return nil, s.end(gql.ErrCancelled("subscription aborted by cancellation signal"))
			case s.isClosed():
				return nil, s.end(io.EOF)
			case s.ctx.Err() != nil:
				return nil, s.end(gql.ErrTransport("subscription context ended").
					WithDetail("error", s.ctx.Err().Error()))
			default:
				return nil, s.end(gql.ErrTransport("websocket read failed").
					WithDetail("error", err.Error()))
			}
		}

		switch msg.Type {
		case msgPing:
			s.writeJSON(wsMessage{Type: msgPong})

		case msgNext:
			if msg.ID != s.id {
				continue
			}
			var resp gql.Response
			if err := json.Unmarshal(msg.Payload, &resp); err != nil {
				// Not terminal; the protocol stream is still intact.
				return nil, gql.ErrParse("subscription payload could not be decoded").
					WithDetail("payload", string(msg.Payload)).
					WithDetail("error", err.Error())
			}
			return &resp, nil

		case msgError:
			if msg.ID != s.id {
				continue
			}
			s.shutdown()
			e := gql.ErrServer("server rejected the subscription").
				WithDetail("payload", string(msg.Payload))
			var respErrors []*gql.ResponseError
			if json.Unmarshal(msg.Payload, &respErrors) == nil && len(respErrors) > 0 {
				msgs := make([]string, 0, len(respErrors))
				for _, re := range respErrors {
					msgs = append(msgs, re.Message)
				}
				e.WithDetail("errors", msgs)
			}
			return nil, s.end(e)

		case msgComplete:
			if msg.ID != s.id {
				continue
			}
			s.shutdown()
			return nil, s.end(io.EOF)

		default:
			// Unknown message types are ignored.
		}
	}
}

// Close ends the subscription from the consumer side: a best-effort
// complete to the server, then connection teardown
func (s *subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.writeJSON(wsMessage{ID: s.id, Type: msgComplete})
	s.shutdown()
	return nil
}

func (s *subscription) writeJSON(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(v)
}

// end records the terminal outcome so later Next calls repeat it
func (s *subscription) end(err error) error {
	s.lastErr = err
	return err
}

func (s *subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *subscription) shutdown() {
	s.teardown.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
