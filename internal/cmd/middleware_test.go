package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/config"
	chiTransport "github.com/kailas-cloud/modelsearch/internal/transport/chi"
	"github.com/kailas-cloud/modelsearch/internal/transport/dto"
)

func newTestRouter(t *testing.T, backendURL string, keys ...string) http.Handler {
	t.Helper()
	cfg := config.Config{Backend: config.BackendConfig{URL: backendURL}, Auth: config.AuthConfig{APIKeys: keys}}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	st, err := buildStack(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(st.close)

	return newRouter(cfg, chiTransport.NewServer(st.session, st.health, cfg.Profile.Host, zap.NewNop()), zap.NewNop())
}

func TestRouter_SearchAndView(t *testing.T) {
	backend, _ := newBackend(t, http.StatusOK, backendBody)
	h := newTestRouter(t, backend.URL)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"llama"}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/view", http.NoBody))
	var v dto.View
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	assert.Equal(t, "llama", v.Query)
	assert.Equal(t, 4, v.Total)
}

func TestRouter_AuthAndExemptPaths(t *testing.T) {
	backend, _ := newBackend(t, http.StatusOK, backendBody)
	h := newTestRouter(t, backend.URL, "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/view", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/view", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	backend, _ := newBackend(t, http.StatusOK, backendBody)
	h := newTestRouter(t, backend.URL)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/collections", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/view", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var e dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
	assert.Equal(t, dto.ErrorCodeInternalError, e.Code)
}
