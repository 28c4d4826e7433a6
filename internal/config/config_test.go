package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "server:\n  addr: \":9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "local-model", cfg.LLM.Model)
	assert.Equal(t, 30000, cfg.LLM.MaxChars)
	assert.Equal(t, "sqlite3", cfg.History.Driver)
	assert.Equal(t, "audit_log.json", cfg.Audit.LedgerPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("LEGALIS_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("LEGALIS_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(writeConfig(t, "llm:\n  model: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFrom_MissingExplicitFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLLMConfig_Configured(t *testing.T) {
	assert.True(t, LLMConfig{Endpoint: "http://x/v1", Model: "m"}.Configured())
	assert.False(t, LLMConfig{Endpoint: "http://x/v1", Model: "m", APIKey: "YOUR_API_KEY_HERE"}.Configured())
	assert.False(t, LLMConfig{Model: "m"}.Configured())
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Audit:   AuditConfig{LedgerPath: "audit_log.json"},
		History: HistoryConfig{Enabled: true, Driver: "sqlite3", DSN: ":memory:"},
		Report:  ReportConfig{Enabled: true, Endpoint: "127.0.0.1:9000", AccessKey: "a", SecretKey: "s", Bucket: "legalis-reports"},
		Workers: WorkersConfig{BasePath: ".", MaxBytes: 1024},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad addr", func(c *Config) { c.Server.Addr = ":notaport" }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad temperature", func(c *Config) { c.LLM.Temperature = 3 }},
		{"no ledger", func(c *Config) { c.Audit.LedgerPath = "" }},
		{"bad driver", func(c *Config) { c.History.Driver = "mysql" }},
		{"no dsn", func(c *Config) { c.History.DSN = "" }},
		{"bad bucket", func(c *Config) { c.Report.Bucket = "Bad_Bucket" }},
		{"no report creds", func(c *Config) { c.Report.SecretKey = "" }},
		{"no base path", func(c *Config) { c.Workers.BasePath = "" }},
		{"no max bytes", func(c *Config) { c.Workers.MaxBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfigAPI_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Token = "secret-token"
	cfg.LLM.APIKey = "sk-live"
	api := NewConfigAPI(cfg)

	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/configure", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-token")
	assert.NotContains(t, w.Body.String(), "sk-live")
	assert.Equal(t, "sk-live", cfg.LLM.APIKey, "source config untouched")

	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/configure/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "***", report["secret_key"])

	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/configure/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigAPI_Validate(t *testing.T) {
	api := NewConfigAPI(validConfig())

	body, _ := json.Marshal(validConfig())
	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/configure/validate", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/configure/validate", strings.NewReader(`{"server":{"addr":""}}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}
