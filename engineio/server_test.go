package engineio

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *Config, onConnect func(*Session)) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	eio := NewServer(cfg)
	if onConnect != nil {
		eio.OnConnect(onConnect)
	}
	srv := httptest.NewServer(eio)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = eio.Close(ctx)
		srv.Close()
	})
	return eio, srv
}

func dialEngine(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?EIO=4&transport=websocket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	open := readFrame(t, conn)
	require.True(t, strings.HasPrefix(open, "0{"), open)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestServer_RejectsBadRequests(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		method string
		query  string
		want   int
	}{
		{name: "post", method: http.MethodPost, query: "?EIO=4&transport=websocket", want: http.StatusMethodNotAllowed},
		{name: "old protocol", method: http.MethodGet, query: "?EIO=3&transport=websocket", want: http.StatusBadRequest},
		{name: "polling", method: http.MethodGet, query: "?EIO=4&transport=polling", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(tt.method, srv.URL+"/"+tt.query, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(r)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_RejectsDisallowedOrigin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://good.example"}
	_, srv := newTestServer(t, cfg, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?EIO=4&transport=websocket"
	header := http.Header{"Origin": []string{"http://bad.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSession_AnswersPingAndDeliversMessages(t *testing.T) {
	req := require.New(t)
	received := make(chan string, 1)
	_, srv := newTestServer(t, nil, func(s *Session) {
		s.OnMessage(func(data []byte) { received <- string(data) })
	})

	conn := dialEngine(t, srv)
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("2probe")))
	req.Equal("3probe", readFrame(t, conn))

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("4hello")))
	select {
	case msg := <-received:
		req.Equal("hello", msg)
	case <-time.After(time.Second):
		req.Fail("message not delivered")
	}
}

func TestSession_PingTimeoutCloses(t *testing.T) {
	req := require.New(t)
	cfg := DefaultConfig()
	cfg.PingInterval = 20 * time.Millisecond
	cfg.PingTimeout = 20 * time.Millisecond
	sessions := make(chan *Session, 1)
	reasons := make(chan string, 1)
	_, srv := newTestServer(t, cfg, func(s *Session) {
		s.OnClose(func(reason string) { reasons <- reason })
		sessions <- s
	})

	conn := dialEngine(t, srv)
	s := <-sessions
	req.Equal("2", readFrame(t, conn))

	// Given the client never answers the ping
	select {
	case reason := <-reasons:
		req.Equal("ping timeout", reason)
	case <-time.After(time.Second):
		req.Fail("session not closed")
	}
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		req.Fail("session not done")
	}
}

func TestSession_PongKeepsAlive(t *testing.T) {
	req := require.New(t)
	cfg := DefaultConfig()
	cfg.PingInterval = 20 * time.Millisecond
	cfg.PingTimeout = 50 * time.Millisecond
	sessions := make(chan *Session, 1)
	_, srv := newTestServer(t, cfg, func(s *Session) { sessions <- s })

	conn := dialEngine(t, srv)
	s := <-sessions
	for range 5 {
		req.Equal("2", readFrame(t, conn))
		req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("3")))
	}

	select {
	case <-s.Done():
		req.Fail("session closed while the client answered pings")
	default:
	}
}

func TestSession_CloseRunsHandlersOnce(t *testing.T) {
	req := require.New(t)
	sessions := make(chan *Session, 1)
	_, srv := newTestServer(t, nil, func(s *Session) { sessions <- s })
	dialEngine(t, srv)
	s := <-sessions

	calls := make(chan string, 4)
	s.OnClose(func(reason string) { calls <- reason })

	s.Close("server disconnect")
	s.Close("again")
	req.ErrorIs(s.Send(NewMessage("x")), ErrSessionClosed)

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		req.Fail("close handlers did not run")
	}
	s.OnClose(func(reason string) { calls <- "late:" + reason })

	req.Equal("server disconnect", <-calls)
	req.Equal("late:already closed", <-calls)
	req.Len(calls, 0)
}

func TestSession_CloseWaitsForMessageHandler(t *testing.T) {
	req := require.New(t)
	sessions := make(chan *Session, 1)
	entered := make(chan struct{})
	release := make(chan struct{})
	var order []string
	_, srv := newTestServer(t, nil, func(s *Session) {
		s.OnMessage(func(data []byte) {
			close(entered)
			<-release
			order = append(order, "message:"+string(data))
		})
		s.OnClose(func(reason string) { order = append(order, "close:"+reason) })
		sessions <- s
	})

	conn := dialEngine(t, srv)
	s := <-sessions
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("4login")))
	select {
	case <-entered:
	case <-time.After(time.Second):
		req.FailNow("message not delivered")
	}

	// When the session is closed while a message is still being handled
	s.Close("ping timeout")
	close(release)

	// Then the close handlers run only after the message handler returned
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		req.FailNow("close handlers did not run")
	}
	req.Equal([]string{"message:login", "close:ping timeout"}, order)
}

func TestServer_CloseWaitsForHandlers(t *testing.T) {
	req := require.New(t)
	closed := make(chan string, 2)
	connected := make(chan struct{}, 2)
	eio, srv := newTestServer(t, nil, func(s *Session) {
		s.OnClose(func(reason string) { closed <- reason })
		connected <- struct{}{}
	})
	dialEngine(t, srv)
	dialEngine(t, srv)
	<-connected
	<-connected

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(eio.Close(ctx))

	req.Len(closed, 2)
	req.Equal("server shutdown", <-closed)
	req.Equal("server shutdown", <-closed)
}
