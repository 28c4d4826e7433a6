package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ericksa/legalis/internal/config"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func newRouter(token string) *mux.Router {
	cfg := &config.Config{Auth: config.AuthConfig{Token: token}}
	router := mux.NewRouter()
	Register(router, cfg)
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	router.HandleFunc("/test", ok)
	router.HandleFunc("/health", ok)
	router.HandleFunc("/tools", ok).Methods("GET")
	router.HandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) { panic("test panic") })
	return router
}

func serve(h http.Handler, req *http.Request) int {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	router := newRouter("test-token")

	assert.Equal(t, http.StatusUnauthorized, serve(router, httptest.NewRequest(http.MethodGet, "/test", nil)))
	assert.Equal(t, http.StatusUnauthorized, serve(router, httptest.NewRequest(http.MethodGet, "/test?token=wrong", nil)))
	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/test?token=test-token", nil)))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	assert.Equal(t, http.StatusOK, serve(router, req))

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health", nil)))
	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/tools", nil)))
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newRouter(""), httptest.NewRequest(http.MethodGet, "/test", nil)))
}

func TestRecoverer(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, serve(newRouter(""), httptest.NewRequest(http.MethodGet, "/panic", nil)))
}

func TestLogger_PassesThrough(t *testing.T) {
	nextCalled := false
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusTeapot)
	}))
	assert.Equal(t, http.StatusTeapot, serve(h, httptest.NewRequest(http.MethodGet, "/x", nil)))
	assert.True(t, nextCalled)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/tools", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/tools", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
