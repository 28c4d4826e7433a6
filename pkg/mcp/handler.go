package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/ericksa/legalis/internal/audit"
	"github.com/ericksa/legalis/internal/config"
	"github.com/ericksa/legalis/internal/history"
	"github.com/ericksa/legalis/internal/llm"
	"github.com/ericksa/legalis/internal/report"
	"github.com/ericksa/legalis/internal/workers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "Legalis Risk Gateway"
	serverVersion = "1.0.0"
)

var ErrToolNotFound = errors.New("tool not found")

type Worker interface {
	GetTools() []workers.ToolDef
	Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error)
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Worker      string `json:"worker"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
}

type Handler struct {
	audit   *audit.Auditor
	workers map[string]Worker
	allowed map[string]bool
	server  *mcp.Server
	http    http.Handler
	logger  *slog.Logger
	closers []func() error
}

// NewHandler wires every worker from cfg and registers their tools with
// the MCP server. Close releases the stores it opened.
func NewHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	auditor, err := openAuditor(cfg.Audit.DBPath, logger)
	if err != nil {
		return nil, err
	}
	h := newHandler(auditor, cfg.Auth.AllowedTools, logger)
	h.closers = append(h.closers, auditor.Close)

	ledger, err := audit.OpenLedger(cfg.Audit.LedgerPath)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.closers = append(h.closers, ledger.Close)

	var caller llm.Caller
	if cfg.LLM.Configured() {
		client, err := llm.NewOpenAIClient(llm.Config{
			Endpoint:    cfg.LLM.Endpoint,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		if err != nil {
			h.Close()
			return nil, err
		}
		caller = client
	} else {
		logger.Warn("llm not configured, analyze will be unavailable")
	}
	analyzer := analysis.New(caller, analysis.WithMaxChars(cfg.LLM.MaxChars), analysis.WithLogger(logger))

	docs := workers.NewDocumentWorker(cfg.Workers.BasePath, cfg.Workers.MaxBytes)
	contract := workers.NewContractWorker(analyzer, ledger, logger)
	contract.SetDocuments(docs)

	if cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			// history is optional; the gateway still scores without it
			logger.Warn("failed to open history store", "driver", cfg.History.Driver, "error", err)
		} else {
			h.closers = append(h.closers, store.Close)
			contract.SetHistory(store)
		}
	}

	if cfg.Report.Enabled {
		exporter, err := report.NewExporter(report.Config{
			Endpoint:  cfg.Report.Endpoint,
			AccessKey: cfg.Report.AccessKey,
			SecretKey: cfg.Report.SecretKey,
			Bucket:    cfg.Report.Bucket,
			Prefix:    cfg.Report.Prefix,
			UseSSL:    cfg.Report.UseSSL,
		}, logger)
		if err != nil {
			logger.Warn("failed to initialize report exporter", "error", err)
		} else {
			contract.SetExporter(exporter, cfg.Report.URLTTL)
		}
	}

	h.Register("contract", contract)
	h.Register("document", docs)
	return h, nil
}

func openAuditor(path string, logger *slog.Logger) (*audit.Auditor, error) {
	if path != "" && path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create audit db dir: %w", err)
		}
	}
	if path == "" {
		path = ":memory:"
	}
	return audit.NewAuditor(path, logger)
}

func newHandler(auditor *audit.Auditor, allowedTools []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		audit:   auditor,
		workers: make(map[string]Worker),
		logger:  logger,
	}
	// an empty list or "*" exposes every tool
	if len(allowedTools) > 0 && !slices.Contains(allowedTools, "*") {
		h.allowed = make(map[string]bool, len(allowedTools))
		for _, t := range allowedTools {
			h.allowed[t] = true
		}
	}
	h.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)
	server := h.server
	h.http = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	return h
}

// Register adds a worker and exposes each of its tools as "<name>_<tool>".
func (h *Handler) Register(name string, w Worker) {
	h.workers[name] = w
	for _, tool := range w.GetTools() {
		toolName := fmt.Sprintf("%s_%s", name, tool.Name)
		if !h.permitted(toolName) {
			continue
		}
		mcp.AddTool(h.server, &mcp.Tool{
			Name:        toolName,
			Description: tool.Description,
		}, h.wrapTool(toolName))
	}
}

func (h *Handler) permitted(toolName string) bool {
	return h.allowed == nil || h.allowed[toolName]
}

func (h *Handler) wrapTool(toolName string) mcp.ToolHandlerFor[map[string]any, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, any, error) {
		inputBytes, err := json.Marshal(input)
		if err != nil {
			return nil, nil, err
		}
		result, err := h.ExecuteTool(ctx, toolName, inputBytes)
		if err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{
					&mcp.TextContent{Text: err.Error()},
				},
			}, nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(result)},
			},
		}, nil, nil
	}
}

// Server returns the underlying MCP server, e.g. for stdio transports.
func (h *Handler) Server() *mcp.Server { return h.server }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.http.ServeHTTP(w, r)
}

// ExecuteTool runs a fully qualified tool and records the call.
func (h *Handler) ExecuteTool(ctx context.Context, toolName string, args json.RawMessage) ([]byte, error) {
	worker, shortName, ok := h.resolve(toolName)
	if !ok || !h.permitted(toolName) {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}
	start := time.Now()
	result, err := worker.Execute(ctx, shortName, args)
	h.audit.Log(ctx, toolName, args, result, time.Since(start), err)
	if err != nil {
		h.logger.Warn("tool call failed", "tool", toolName, "error", err)
	}
	return result, err
}

func (h *Handler) resolve(toolName string) (Worker, string, bool) {
	for name, worker := range h.workers {
		prefix := name + "_"
		if strings.HasPrefix(toolName, prefix) && len(toolName) > len(prefix) {
			return worker, toolName[len(prefix):], true
		}
	}
	return nil, "", false
}

// Tools lists every permitted tool sorted by name.
func (h *Handler) Tools() []ToolInfo {
	var tools []ToolInfo
	for name, worker := range h.workers {
		for _, t := range worker.GetTools() {
			full := name + "_" + t.Name
			if !h.permitted(full) {
				continue
			}
			tools = append(tools, ToolInfo{Name: full, Worker: name, Tool: t.Name, Description: t.Description})
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Recent returns the latest audited tool calls.
func (h *Handler) Recent(ctx context.Context, limit int) ([]audit.ToolCall, error) {
	return h.audit.Recent(ctx, limit)
}

func (h *Handler) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}
