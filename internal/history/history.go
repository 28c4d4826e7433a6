package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/ericksa/legalis/internal/risk"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("analysis not found")

// Summary is the list view of a stored analysis.
type Summary struct {
	ID           string     `json:"id"`
	ContractType string     `json:"contract_type"`
	Summary      string     `json:"summary"`
	Score        float64    `json:"score"`
	Level        risk.Level `json:"level"`
	ClauseCount  int        `json:"clause_count"`
	AnalyzedAt   time.Time  `json:"analyzed_at"`
}

// Store persists scored analyses in SQLite or Postgres.
type Store struct {
	db     *sql.DB
	driver string
}

const schema = `CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	contract_type TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	score DOUBLE PRECISION NOT NULL,
	level TEXT NOT NULL,
	clause_count INTEGER NOT NULL,
	payload TEXT NOT NULL,
	analyzed_at TIMESTAMP NOT NULL
)`

// Open connects to driver ("sqlite3" or "postgres") and ensures the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Save(ctx context.Context, res *analysis.Result) error {
	if res == nil || res.ID == "" {
		return errors.New("analysis has no id")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO analyses (id, contract_type, summary, score, level, clause_count, payload, analyzed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		res.ID, res.ContractType, res.Summary, res.RiskMetadata.Score, string(res.RiskMetadata.Level),
		len(res.Clauses), string(payload), res.AnalyzedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", res.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*analysis.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT payload FROM analyses WHERE id = ?"), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var res analysis.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return &res, nil
}

// List returns the newest analyses first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT id, contract_type, summary, score, level, clause_count, analyzed_at FROM analyses ORDER BY analyzed_at DESC, id LIMIT ?"), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var level string
		if err := rows.Scan(&sm.ID, &sm.ContractType, &sm.Summary, &sm.Score, &level, &sm.ClauseCount, &sm.AnalyzedAt); err != nil {
			return nil, err
		}
		sm.Level = risk.Level(level)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// rebind turns ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
