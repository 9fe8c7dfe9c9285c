package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WantsHTML reports whether the client is a browser navigating to a page
// rather than a script calling the API.
func WantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// Envelope is the body of every API response. Notifications carries the
// toasts raised while serving the request; Redirect and Replace tell the
// client where to navigate next and whether to replace the history entry.
type Envelope struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	Notifications any               `json:"notifications"`
	Redirect      string            `json:"redirect,omitempty"`
	Replace       bool              `json:"replace,omitempty"`
	Data          any               `json:"data,omitempty"`
}
