package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/gate"
	"github.com/AnshRaj112/profiledir-backend/internal/models"
)

// streamSource hands out one pre-made channel per token.
type streamSource struct {
	streams      map[string]chan models.AuthState
	unsubscribed chan string
}

func (s *streamSource) Subscribe(_ context.Context, token string) (<-chan models.AuthState, func(), error) {
	ch, ok := s.streams[token]
	if !ok {
		ch = make(chan models.AuthState, 1)
		ch <- models.AuthState{}
		close(ch)
	}
	return ch, func() {
		select {
		case s.unsubscribed <- token:
		default:
		}
	}, nil
}

func dialStream(t *testing.T, h *SessionStreamHandler, token string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeSessionStream))
	t.Cleanup(srv.Close)

	header := http.Header{}
	if token != "" {
		header.Set("Cookie", testCookie.Name+"="+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) sessionFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f sessionFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestSessionStream_GrantedThenSignedOut(t *testing.T) {
	stream := make(chan models.AuthState, 1)
	src := &streamSource{
		streams:      map[string]chan models.AuthState{"tok": stream},
		unsubscribed: make(chan string, 1),
	}
	h := NewSessionStreamHandler(src, testCookie.Name, nil, zap.NewNop())
	conn := dialStream(t, h, "tok")

	assert.Equal(t, "checking", readFrame(t, conn).State)

	stream <- models.AuthState{UserID: "u1"}
	f := readFrame(t, conn)
	assert.Equal(t, "granted", f.State)
	assert.Equal(t, "u1", f.UserID)
	assert.Empty(t, f.Redirect)

	stream <- models.AuthState{}
	f = readFrame(t, conn)
	assert.Equal(t, "denied", f.State)
	assert.Equal(t, "/login", f.Redirect)
	assert.True(t, f.Replace)
	require.NotNil(t, f.Notification)
	assert.Equal(t, gate.DeniedMessage, f.Notification.Message)

	_ = conn.Close()
	select {
	case token := <-src.unsubscribed:
		assert.Equal(t, "tok", token)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not released after the socket closed")
	}
}

func TestSessionStream_AnonymousIsDeniedOnce(t *testing.T) {
	src := &streamSource{unsubscribed: make(chan string, 1)}
	h := NewSessionStreamHandler(src, testCookie.Name, nil, zap.NewNop())
	conn := dialStream(t, h, "")

	assert.Equal(t, "checking", readFrame(t, conn).State)
	f := readFrame(t, conn)
	assert.Equal(t, "denied", f.State)
	assert.Equal(t, "/login", f.Redirect)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestSessionStream_RejectsForeignOrigin(t *testing.T) {
	h := NewSessionStreamHandler(&streamSource{}, testCookie.Name, []string{"https://app.example.com"}, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeSessionStream))
	defer srv.Close()

	header := http.Header{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
