package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/gate"
	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/AnshRaj112/profiledir-backend/internal/services"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
)

// LoginPath is where denied requests are sent.
const LoginPath = "/login"

// gateCheckTimeout bounds how long a request waits for the first auth-state event.
const gateCheckTimeout = 5 * time.Second

// AuthStateSource streams the auth state of a session.
type AuthStateSource interface {
	Subscribe(ctx context.Context, token string) (<-chan models.AuthState, func(), error)
}

// SessionToken returns the session cookie value, or "" when absent.
func SessionToken(r *http.Request, cookieName string) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SessionGate lets a request through only when its session is signed in.
// The request waits for the first auth-state event. Browsers are redirected
// to the sign-in page with 303; API clients get 401 with a replacing
// redirect and the "must be logged in" notification.
func SessionGate(src AuthStateSource, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r, cookieName)

			ctx, cancel := context.WithTimeout(r.Context(), gateCheckTimeout)
			defer cancel()

			events, unsubscribe, err := src.Subscribe(ctx, token)
			if err != nil {
				logger.Error("session check failed", zap.Error(err))
				httpx.WriteJSON(w, http.StatusServiceUnavailable, errorBody("Unable to verify session. Please try again."))
				return
			}
			defer unsubscribe()

			toasts := services.NewToasts()
			g := gate.New(gate.Hooks{
				OnDenied: func() { toasts.Error("", gate.DeniedMessage) },
			})
			go g.Run(ctx, events)

			switch state, userID := g.Await(ctx); state {
			case gate.Granted:
				next.ServeHTTP(w, r.WithContext(httpx.WithSession(r.Context(), userID, token)))
			case gate.Denied:
				denySession(w, r, toasts)
			default:
				logger.Warn("session check timed out")
				httpx.WriteJSON(w, http.StatusServiceUnavailable, errorBody("Unable to verify session. Please try again."))
			}
		})
	}
}

func denySession(w http.ResponseWriter, r *http.Request, toasts *services.Toasts) {
	if httpx.WantsHTML(r) {
		httpx.NoCache(w)
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	httpx.WriteJSON(w, http.StatusUnauthorized, httpx.Envelope{
		Success:       false,
		Message:       gate.DeniedMessage,
		Notifications: toasts.List(),
		Redirect:      LoginPath,
		Replace:       true,
	})
}
