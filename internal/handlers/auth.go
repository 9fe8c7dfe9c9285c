package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/AnshRaj112/profiledir-backend/internal/services"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
	"github.com/AnshRaj112/profiledir-backend/pkg/utils"
)

const (
	LoginLoadingMessage = "Logging you in..."
	LoginSuccessMessage = "Login successful!"

	dashboardPath = "/dashboard"
	loginPath     = "/login"

	// formOverhead is the room left for the text fields of a sign-up form.
	formOverhead = 1 << 20
)

// Authenticator signs a person in and returns their session token.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, string, error)
}

// Registrar runs the sign-up workflow.
type Registrar interface {
	Register(ctx context.Context, form services.RegistrationForm, n services.Notifier) (string, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (c CookieConfig) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) cleared() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type AuthHandler struct {
	Log            *zap.Logger
	Identity       Authenticator
	Registration   Registrar
	Cookie         CookieConfig
	MaxUploadBytes int64
}

func NewAuthHandler(identity Authenticator, registration Registrar, cookie CookieConfig, maxUploadBytes int64, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		Log:            logger,
		Identity:       identity,
		Registration:   registration,
		Cookie:         cookie,
		MaxUploadBytes: maxUploadBytes,
	}
}

// ServeRegister handles POST /register.
func (h *AuthHandler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.MaxUploadBytes+formOverhead)
	form, closeForm, err := parseRegistrationForm(r, h.MaxUploadBytes)
	defer closeForm()
	if err != nil {
		h.Log.Warn("invalid registration submission", zap.Error(err))
		respond(w, http.StatusBadRequest, httpx.Envelope{Success: false, Message: "Invalid form submission"}, nil)
		return
	}

	toasts := services.NewToasts()
	id, err := h.Registration.Register(r.Context(), form, toasts)
	if err != nil {
		writeError(w, h.Log, err, toasts)
		return
	}

	if httpx.WantsHTML(r) {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	respond(w, http.StatusCreated, httpx.Envelope{
		Success:  true,
		Message:  services.RegisterSuccessMessage,
		Redirect: loginPath,
		Data:     map[string]string{"id": id},
	}, toasts)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var loginRules = []utils.Rule[loginRequest]{
	{Field: "email", Check: func(l loginRequest) string { return utils.Required(l.Email, "Email is required") }},
	{Field: "password", Check: func(l loginRequest) string { return utils.Present(l.Password, "Password is required") }},
}

func parseLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Email = r.FormValue("email")
	req.Password = r.FormValue("password")
	return req, nil
}

// ServeLogin handles POST /login.
func (h *AuthHandler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	req, err := parseLogin(r)
	if err != nil {
		respond(w, http.StatusBadRequest, httpx.Envelope{Success: false, Message: "Invalid request body"}, nil)
		return
	}

	if err := utils.Validate(req, loginRules).Err(); err != nil {
		writeError(w, h.Log, err, nil)
		return
	}

	toasts := services.NewToasts()
	toastID := toasts.Loading(LoginLoadingMessage)

	identity, token, err := h.Identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		toasts.Error(toastID, err.Error())
		writeError(w, h.Log, err, toasts)
		return
	}

	http.SetCookie(w, h.Cookie.session(token))
	toasts.Success(toastID, LoginSuccessMessage)
	h.Log.Info("signed in", zap.String("identity_id", identity.ID))

	if httpx.WantsHTML(r) {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	respond(w, http.StatusOK, httpx.Envelope{
		Success:  true,
		Message:  LoginSuccessMessage,
		Redirect: dashboardPath,
		Data:     identity,
	}, toasts)
}
