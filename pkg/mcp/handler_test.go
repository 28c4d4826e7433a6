package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/ericksa/legalis/internal/audit"
	"github.com/ericksa/legalis/internal/config"
	"github.com/ericksa/legalis/internal/workers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, allowed ...string) *Handler {
	t.Helper()
	auditor, err := audit.NewAuditor(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { auditor.Close() })

	ledger, err := audit.OpenLedger(filepath.Join(t.TempDir(), "audit_log.json"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	h := newHandler(auditor, allowed, nil)
	h.Register("contract", workers.NewContractWorker(analysis.New(nil), ledger, nil))
	h.Register("document", workers.NewDocumentWorker(t.TempDir(), 1024))
	return h
}

func TestHandler_ExecuteTool(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	out, err := h.ExecuteTool(ctx, "contract_risk_score", json.RawMessage(`{"text": "The supplier shall indemnify the buyer"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 7}`, string(out))

	_, err = h.ExecuteTool(ctx, "vector_search", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrToolNotFound)

	_, err = h.ExecuteTool(ctx, "contract_analyze", json.RawMessage(`{"text": "x"}`))
	assert.ErrorIs(t, err, analysis.ErrNotConfigured)

	calls, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "contract_analyze", calls[0].Tool)
	assert.NotEmpty(t, calls[0].Error)
}

func TestHandler_Tools(t *testing.T) {
	tools := newTestHandler(t).Tools()
	require.Len(t, tools, 12)
	assert.Equal(t, "contract_analyze", tools[0].Name)
	assert.Equal(t, "document_list", tools[len(tools)-1].Name)
}

func TestHandler_AllowedTools(t *testing.T) {
	h := newTestHandler(t, "contract_risk_score")
	require.Len(t, h.Tools(), 1)

	_, err := h.ExecuteTool(context.Background(), "contract_risk_composite", json.RawMessage(`{"scores": [1]}`))
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestHandler_MCPSession(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := h.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	list, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Tools, 12)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "contract_risk_composite",
		Arguments: map[string]any{"scores": []int{9, 1}},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.JSONEq(t, `{"score": 7.4, "level": "High", "max_clause_score": 9, "high_risk_clauses": 1}`, text)

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "contract_template",
		Arguments: map[string]any{"name": "nda"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewHandler_FromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Audit:   config.AuditConfig{LedgerPath: filepath.Join(dir, "audit_log.json"), DBPath: filepath.Join(dir, "db", "audit.db")},
		History: config.HistoryConfig{Enabled: true, Driver: "sqlite3", DSN: ":memory:"},
		Workers: config.WorkersConfig{BasePath: dir, MaxBytes: 1024},
	}
	h, err := NewHandler(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer h.Close()

	assert.Len(t, h.Tools(), 12)
	out, err := h.ExecuteTool(context.Background(), "contract_history_list", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))
}

func TestHandler_WildcardAllowsAll(t *testing.T) {
	assert.Len(t, newTestHandler(t, "*").Tools(), 12)
}
