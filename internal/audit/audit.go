package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Auditor records every tool call in a SQLite table.
type Auditor struct {
	db     *sql.DB
	logger *slog.Logger
}

type ToolCall struct {
	ID        int64     `json:"id"`
	Tool      string    `json:"tool"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Error     string    `json:"error,omitempty"`
	Elapsed   int64     `json:"elapsed_ms"`
	Timestamp time.Time `json:"timestamp"`
}

const toolCallSchema = `CREATE TABLE IF NOT EXISTS tool_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tool TEXT NOT NULL,
	input TEXT,
	output TEXT,
	error TEXT,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	timestamp DATETIME NOT NULL
)`

// NewAuditor opens the SQLite database at dsn. Use ":memory:" for tests.
func NewAuditor(dsn string, logger *slog.Logger) (*Auditor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(toolCallSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}
	return &Auditor{db: db, logger: logger}, nil
}

// Log records a tool call. Failures are logged, never returned, so auditing
// cannot break a call.
func (a *Auditor) Log(ctx context.Context, tool string, input json.RawMessage, output []byte, elapsed time.Duration, callErr error) {
	if a == nil || a.db == nil {
		return
	}
	var errStr string
	if callErr != nil {
		errStr = callErr.Error()
	}
	_, err := a.db.ExecContext(ctx,
		"INSERT INTO tool_calls (tool, input, output, error, elapsed_ms, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		tool, string(input), string(output), errStr, elapsed.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		a.logger.Warn("failed to write audit row", "tool", tool, "error", err)
	}
}

// Recent returns the newest tool calls first.
func (a *Auditor) Recent(ctx context.Context, limit int) ([]ToolCall, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		"SELECT id, tool, input, output, error, elapsed_ms, timestamp FROM tool_calls ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []ToolCall
	for rows.Next() {
		var c ToolCall
		var input, output, errStr sql.NullString
		if err := rows.Scan(&c.ID, &c.Tool, &input, &output, &errStr, &c.Elapsed, &c.Timestamp); err != nil {
			return nil, err
		}
		c.Input, c.Output, c.Error = input.String, output.String, errStr.String
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func (a *Auditor) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
