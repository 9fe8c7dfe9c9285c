package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/services"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
)

// Directory lists profiles and ends sessions.
type Directory interface {
	Load(ctx context.Context, n services.Notifier) (services.DirectoryView, error)
	SignOut(ctx context.Context, token string, n services.Notifier) error
}

type DashboardHandler struct {
	Log       *zap.Logger
	Directory Directory
	Cookie    CookieConfig
}

func NewDashboardHandler(directory Directory, cookie CookieConfig, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		Log:       logger,
		Directory: directory,
		Cookie:    cookie,
	}
}

type dashboardData struct {
	UserID string `json:"user_id"`
	services.DirectoryView
}

// ServeDashboard handles GET /dashboard. Mount behind the session gate.
func (h *DashboardHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())
	toasts := services.NewToasts()

	view, err := h.Directory.Load(r.Context(), toasts)
	if err != nil {
		respond(w, http.StatusBadGateway, httpx.Envelope{
			Success: false,
			Message: services.FetchUsersFailedMessage,
			Data:    dashboardData{UserID: userID, DirectoryView: view},
		}, toasts)
		return
	}

	respond(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Data:    dashboardData{UserID: userID, DirectoryView: view},
	}, toasts)
}

// ServeLogout handles POST /logout. Mount behind the session gate.
func (h *DashboardHandler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	token := httpx.SessionTokenFromCtx(r.Context())
	toasts := services.NewToasts()

	if err := h.Directory.SignOut(r.Context(), token, toasts); err != nil {
		respond(w, statusFor(err), httpx.Envelope{Success: false, Message: services.LogoutFailedMessage}, toasts)
		return
	}

	http.SetCookie(w, h.Cookie.cleared())
	if httpx.WantsHTML(r) {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	respond(w, http.StatusOK, httpx.Envelope{
		Success:  true,
		Message:  services.LogoutSuccessMessage,
		Redirect: loginPath,
	}, toasts)
}
