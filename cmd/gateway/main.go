package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/ericksa/legalis/internal/config"
	"github.com/ericksa/legalis/internal/history"
	"github.com/ericksa/legalis/internal/metrics"
	"github.com/ericksa/legalis/internal/middleware"
	"github.com/ericksa/legalis/internal/risk"
	"github.com/ericksa/legalis/internal/workers"
	"github.com/ericksa/legalis/pkg/mcp"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, err := mcp.NewHandler(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize handler", "error", err)
		os.Exit(1)
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(cfg, handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.Timeout + cfg.LLM.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting legalis gateway", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// maxRequestBody caps tool arguments, which may carry a full contract text.
const maxRequestBody = 8 << 20

type toolHandler interface {
	http.Handler
	Tools() []mcp.ToolInfo
	ExecuteTool(ctx context.Context, toolName string, args json.RawMessage) ([]byte, error)
}

func newRouter(cfg *config.Config, h toolHandler) *mux.Router {
	router := mux.NewRouter()
	middleware.Register(router, cfg)

	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/tools", listToolsHandler(h)).Methods("GET")
	router.HandleFunc("/tools/{worker}/{tool}", executeToolHandler(h)).Methods("POST")
	router.PathPrefix("/mcp").Handler(h)
	router.PathPrefix("/configure").Handler(config.NewConfigAPI(cfg).Router())
	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func listToolsHandler(h toolHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tools": h.Tools()})
	}
}

func executeToolHandler(h toolHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(body) > 0 && !json.Valid(body) {
			http.Error(w, "request body is not valid JSON", http.StatusBadRequest)
			return
		}

		result, err := h.ExecuteTool(r.Context(), vars["worker"]+"_"+vars["tool"], body)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(result)
	}
}

// statusFor maps tool errors onto HTTP status codes.
func statusFor(err error) int {
	var perr *analysis.ParseError
	switch {
	case errors.Is(err, mcp.ErrToolNotFound), errors.Is(err, workers.ErrUnknownTool),
		errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrNotConfigured), errors.Is(err, workers.ErrHistoryDisabled),
		errors.Is(err, workers.ErrReportDisabled), errors.Is(err, workers.ErrLedgerDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrEmptyContract), errors.Is(err, analysis.ErrInvalidArgument),
		errors.Is(err, workers.ErrOutsideBase), errors.Is(err, workers.ErrFileTooLarge),
		errors.Is(err, risk.ErrScoreOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrPermissionDenied), errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
