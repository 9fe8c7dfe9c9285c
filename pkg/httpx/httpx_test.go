package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
}

func TestWantsHTML(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"text/html,application/xhtml+xml,*/*;q=0.8", true},
		{"application/json", false},
		{"application/json, text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", tt.accept)
		assert.Equal(t, tt.want, WantsHTML(r), tt.accept)
	}
}

func TestSessionContext(t *testing.T) {
	ctx := WithSession(context.Background(), "u1", "tok")
	assert.Equal(t, "u1", UserIDFromCtx(ctx))
	assert.Equal(t, "tok", SessionTokenFromCtx(ctx))

	assert.Empty(t, UserIDFromCtx(context.Background()))
}
