package gqlws_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Abraxas-365/gqlx/pkg/cancelx"
	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
	"github.com/Abraxas-365/gqlx/pkg/gql/transports/gqlws"
)

// wsMessage mirrors the protocol frame for the server side of the tests
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// subscriptionServer performs the connection_init / connection_ack
// handshake, consumes the subscribe message and hands the live
// connection to the script together with the captured frames.
func subscriptionServer(t *testing.T, script func(conn *websocket.Conn, init, sub wsMessage)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{Subprotocols: []string{gqlws.Subprotocol}}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var init wsMessage
		if err := conn.ReadJSON(&init); err != nil || init.Type != "connection_init" {
			return
		}
		if err := conn.WriteJSON(wsMessage{Type: "connection_ack"}); err != nil {
			return
		}
		var sub wsMessage
		if err := conn.ReadJSON(&sub); err != nil || sub.Type != "subscribe" {
			return
		}
		script(conn, init, sub)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func tickSubscription() *gql.Request {
	return gql.NewRequest(gql.NewSubscription(`subscription { tick }`))
}

// drainServer keeps reading until the peer goes away so pushed frames
// are not lost to an early handler return
func drainServer(conn *websocket.Conn) {
	var discard wsMessage
	for conn.ReadJSON(&discard) == nil {
	}
}

// --- construction tests ---

func TestNewRejectsBadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "not a url", "http://example.com/graphql"} {
		if _, err := gqlws.New(endpoint); err == nil {
			t.Fatalf("expected error for endpoint %q", endpoint)
		}
	}
}

func TestHandleRejectsNonSubscriptions(t *testing.T) {
	tr, xerr := gqlws.New("ws://example.com/graphql")
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	_, err := tr.Handle(context.Background(), gql.NewRequest(gql.NewQuery(`query { viewer { id } }`)))
	var e *errx.Error
	if !errx.As(err, &e) || e.Code != gqlws.ErrNotSubscription.Code {
		t.Fatalf("expected %s, got %v", gqlws.ErrNotSubscription.Code, err)
	}
}

func TestHandleRejectsNilRequest(t *testing.T) {
	tr, xerr := gqlws.New("ws://example.com/graphql")
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	if _, err := tr.Handle(context.Background(), nil); !gql.IsRequestFormat(err) {
		t.Fatalf("expected request format error, got %v", err)
	}
}

// --- protocol tests ---

func TestSubscriptionDeliversPushesUntilComplete(t *testing.T) {
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "next", Payload: json.RawMessage(`{"data":{"tick":1}}`)})
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "next", Payload: json.RawMessage(`{"data":{"tick":2}}`)})
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "complete"})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	stream, err := tr.Handle(context.Background(), tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	responses, cerr := gql.Collect(stream)
	if cerr != nil {
		t.Fatalf("Collect failed: %v", cerr)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(responses))
	}

	var first struct {
		Tick int `json:"tick"`
	}
	if err := responses[0].DecodeData(&first); err != nil {
		t.Fatalf("DecodeData failed: %v", err)
	}
	if first.Tick != 1 {
		t.Fatalf("expected tick 1, got %d", first.Tick)
	}
}

func TestSubscribePayloadCarriesOperation(t *testing.T) {
	captured := make(chan wsMessage, 1)
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		captured <- sub
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "complete"})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	req := gql.NewRequest(gql.NewOperation("OnTick", `subscription OnTick($room: ID!) { tick(room: $room) }`)).
		WithVariable("room", "lobby")
	stream, err := tr.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Next(); err == nil {
		t.Fatalf("expected stream end")
	}

	sub := <-captured
	if sub.ID == "" {
		t.Fatalf("expected a subscription id")
	}
	var payload struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	if err := json.Unmarshal(sub.Payload, &payload); err != nil {
		t.Fatalf("cannot decode subscribe payload: %v", err)
	}
	if !strings.Contains(payload.Query, "tick(room: $room)") {
		t.Fatalf("unexpected query: %q", payload.Query)
	}
	if payload.OperationName != "OnTick" {
		t.Fatalf("expected operation name OnTick, got %q", payload.OperationName)
	}
	if payload.Variables["room"] != "lobby" {
		t.Fatalf("expected room variable, got %v", payload.Variables)
	}
}

func TestConnectionParamsTravelInInit(t *testing.T) {
	captured := make(chan wsMessage, 1)
	srv := subscriptionServer(t, func(conn *websocket.Conn, init, sub wsMessage) {
		captured <- init
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "complete"})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv), gqlws.WithConnectionParams(map[string]any{"token": "secret"}))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	stream, err := tr.Handle(context.Background(), tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()
	stream.Next()

	init := <-captured
	var params map[string]any
	if err := json.Unmarshal(init.Payload, &params); err != nil {
		t.Fatalf("cannot decode init payload: %v", err)
	}
	if params["token"] != "secret" {
		t.Fatalf("expected connection params, got %v", params)
	}
}

func TestPingsAreAnsweredTransparently(t *testing.T) {
	ponged := make(chan struct{}, 1)
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		conn.WriteJSON(wsMessage{Type: "ping"})
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil || msg.Type != "pong" {
			return
		}
		ponged <- struct{}{}
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "next", Payload: json.RawMessage(`{"data":{"tick":1}}`)})
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "complete"})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	stream, err := tr.Handle(context.Background(), tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Next(); err != nil {
		t.Fatalf("expected push after ping, got %v", err)
	}
	select {
	case <-ponged:
	case <-time.After(2 * time.Second):
		t.Fatalf("server never saw the pong")
	}
}

func TestOtherSubscriptionIDsAreIgnored(t *testing.T) {
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		conn.WriteJSON(wsMessage{ID: "someone-else", Type: "next", Payload: json.RawMessage(`{"data":{"tick":99}}`)})
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "next", Payload: json.RawMessage(`{"data":{"tick":1}}`)})
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "complete"})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	stream, err := tr.Handle(context.Background(), tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	resp, err := stream.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	var data struct {
		Tick int `json:"tick"`
	}
	if err := resp.DecodeData(&data); err != nil {
		t.Fatalf("DecodeData failed: %v", err)
	}
	if data.Tick != 1 {
		t.Fatalf("expected own push, got tick %d", data.Tick)
	}
}

// --- termination tests ---

func TestServerErrorEndsSubscription(t *testing.T) {
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "error", Payload: json.RawMessage(`[{"message":"unauthorized"}]`)})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	stream, err := tr.Handle(context.Background(), tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	_, err = stream.Next()
	if !gql.IsServerError(err) {
		t.Fatalf("expected server error, got %v", err)
	}

	// The terminal outcome is sticky.
	if _, again := stream.Next(); !gql.IsServerError(again) {
		t.Fatalf("expected repeated server error, got %v", again)
	}
}

func TestCompleteStaysTerminal(t *testing.T) {
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "complete"})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	stream, err := tr.Handle(context.Background(), tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	for i := 0; i < 3; i++ {
		if _, err := stream.Next(); err != io.EOF {
			t.Fatalf("call %d: expected EOF, got %v", i, err)
		}
	}
}

func TestCancellationSignalAbortsSubscription(t *testing.T) {
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		conn.WriteJSON(wsMessage{ID: sub.ID, Type: "next", Payload: json.RawMessage(`{"data":{"tick":1}}`)})
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	sig := cancelx.NewSignal()
	ctx := gql.WithCancelSignal(context.Background(), sig)

	stream, err := tr.Handle(ctx, tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Next(); err != nil {
		t.Fatalf("first push failed: %v", err)
	}

	sig.Cancel()
	_, err = stream.Next()
	if !gql.IsCancellation(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, again := stream.Next(); !gql.IsCancellation(again) {
		t.Fatalf("expected repeated cancellation, got %v", again)
	}
}

func TestContextCancelTearsDownSubscription(t *testing.T) {
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		drainServer(conn)
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := tr.Handle(ctx, tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	defer stream.Close()

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !gql.IsTransport(err) {
			t.Fatalf("expected transport error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Next did not unblock on context cancel")
	}
}

func TestCloseSendsComplete(t *testing.T) {
	completed := make(chan wsMessage, 1)
	srv := subscriptionServer(t, func(conn *websocket.Conn, _, sub wsMessage) {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		completed <- msg
	})
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	stream, err := tr.Handle(context.Background(), tickSubscription())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case msg := <-completed:
		if msg.Type != "complete" {
			t.Fatalf("expected complete, got %q", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server never received complete")
	}

	if _, err := stream.Next(); err == nil {
		t.Fatalf("expected closed stream to stop yielding")
	}
}

func TestHandshakeFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websockets here", http.StatusForbidden)
	}))
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv), gqlws.WithHandshakeTimeout(2*time.Second))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	_, err := tr.Handle(context.Background(), tickSubscription())
	if !gql.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestMissingAckIsTransportError(t *testing.T) {
	upgrader := websocket.Upgrader{Subprotocols: []string{gqlws.Subprotocol}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Never acknowledge; the client's handshake deadline decides.
		drainServer(conn)
	}))
	defer srv.Close()

	tr, xerr := gqlws.New(wsURL(srv), gqlws.WithHandshakeTimeout(200*time.Millisecond))
	if xerr != nil {
		t.Fatalf("New failed: %v", xerr)
	}

	_, err := tr.Handle(context.Background(), tickSubscription())
	if !gql.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
