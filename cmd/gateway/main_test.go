package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/ericksa/legalis/internal/config"
	"github.com/ericksa/legalis/internal/history"
	"github.com/ericksa/legalis/internal/risk"
	"github.com/ericksa/legalis/internal/workers"
	"github.com/ericksa/legalis/pkg/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, token string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Auth:    config.AuthConfig{Token: token},
		Audit:   config.AuditConfig{LedgerPath: filepath.Join(dir, "audit_log.json"), DBPath: ":memory:"},
		Workers: config.WorkersConfig{BasePath: dir, MaxBytes: 1024},
	}
	h, err := mcp.NewHandler(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return newRouter(cfg, h)
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestListTools(t *testing.T) {
	router := newTestRouter(t, "secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tools", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Tools []mcp.ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Tools, 12)
}

func TestExecuteTool(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/contract/risk_score",
		strings.NewReader(`{"text": "Either party may invoke arbitration", "category": "Arbitration"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"score": 7}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/contract/audit_save",
		strings.NewReader(`{"score": 4.2, "summary": "lease"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/contract/analyze",
		strings.NewReader(`{"text": "contract"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/vector/search", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/contract/risk_score", strings.NewReader(`{bad`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteTool_Limits(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/contract/risk_composite",
		strings.NewReader(`{"scores": [42, -3]}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := `{"text": "` + strings.Repeat("a", maxRequestBody) + `"}`
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/contract/risk_score", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestExecuteTool_RequiresToken(t *testing.T) {
	router := newTestRouter(t, "secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tools/contract/risk_score", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/tools/contract/risk_score", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsAndConfigure(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/configure/workers", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "base_path")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", mcp.ErrToolNotFound), http.StatusNotFound},
		{history.ErrNotFound, http.StatusNotFound},
		{analysis.ErrNotConfigured, http.StatusServiceUnavailable},
		{workers.ErrReportDisabled, http.StatusServiceUnavailable},
		{workers.ErrLedgerDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: score 42", risk.ErrScoreOutOfRange), http.StatusBadRequest},
		{analysis.ErrEmptyContract, http.StatusBadRequest},
		{workers.ErrOutsideBase, http.StatusBadRequest},
		{fmt.Errorf("%w: 401", analysis.ErrPermissionDenied), http.StatusBadGateway},
		{&analysis.ParseError{Raw: "x", Err: errors.New("eof")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
