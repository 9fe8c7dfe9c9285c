package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/gate"
	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/AnshRaj112/profiledir-backend/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 30 * time.Second
)

// AuthStateSource streams the auth state of a session.
type AuthStateSource interface {
	Subscribe(ctx context.Context, token string) (<-chan models.AuthState, func(), error)
}

// sessionFrame is one gate transition pushed to the client.
type sessionFrame struct {
	State        string          `json:"state"`
	UserID       string          `json:"user_id,omitempty"`
	Redirect     string          `json:"redirect,omitempty"`
	Replace      bool            `json:"replace,omitempty"`
	Notification *services.Toast `json:"notification,omitempty"`
}

type SessionStreamHandler struct {
	Log        *zap.Logger
	Source     AuthStateSource
	CookieName string

	upgrader websocket.Upgrader
}

func NewSessionStreamHandler(src AuthStateSource, cookieName string, allowedOrigins []string, logger *zap.Logger) *SessionStreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimSpace(o))] = true
	}

	return &SessionStreamHandler{
		Log:        logger,
		Source:     src,
		CookieName: cookieName,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || allowed[strings.ToLower(origin)]
			},
		},
	}
}

// wsConn serializes writes to a WebSocket connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) writeControl(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(messageType, data, time.Now().Add(wsWriteWait))
}

// ServeSessionStream handles GET /ws/session. The connection carries one
// frame per gate transition for the session in the cookie, starting with
// "checking". After a denial of a session that can never become valid the
// socket is closed normally.
func (h *SessionStreamHandler) ServeSessionStream(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(h.CookieName); err == nil {
		token = c.Value
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	ws := &wsConn{conn: conn}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := func(f sessionFrame) {
		if err := ws.writeJSON(f); err != nil {
			cancel()
		}
	}

	g := gate.New(gate.Hooks{
		OnChecking: func() { send(sessionFrame{State: gate.Checking.String()}) },
		OnDenied: func() {
			send(sessionFrame{
				State:        gate.Denied.String(),
				Redirect:     loginPath,
				Replace:      true,
				Notification: &services.Toast{ID: uuid.NewString(), Kind: services.ToastError, Message: gate.DeniedMessage},
			})
		},
		OnGranted: func(userID string) {
			send(sessionFrame{State: gate.Granted.String(), UserID: userID})
		},
	})

	events, unsubscribe, err := h.Source.Subscribe(ctx, token)
	if err != nil {
		h.Log.Error("session stream subscribe failed", zap.Error(err))
		_ = ws.writeControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session check failed"))
		return
	}
	defer unsubscribe()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		g.Run(ctx, events)
	}()

	go h.readLoop(conn, cancel)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-runDone:
			_ = ws.writeControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
			return
		case <-ticker.C:
			if err := ws.writeControl(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages and ends the stream when the client goes away.
func (h *SessionStreamHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
