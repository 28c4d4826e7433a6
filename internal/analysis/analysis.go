package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericksa/legalis/internal/llm"
	"github.com/ericksa/legalis/internal/risk"
	"github.com/google/uuid"
)

const (
	DefaultMaxChars = 30000
	DefaultTypeHint = "General"
)

var (
	ErrNotConfigured    = errors.New("model not configured: provide a valid API key")
	ErrPermissionDenied = errors.New("authentication failed: invalid API key")
	ErrInvalidArgument  = errors.New("request rejected: the text may be too long or malformed")
	ErrEmptyContract    = errors.New("contract text is empty")
)

// ParseError is returned when the model answer is not the JSON we asked for.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is a scored contract analysis.
type Result struct {
	ID                 string         `json:"id"`
	ContractType       string         `json:"contract_type"`
	Summary            string         `json:"summary"`
	Parties            []string       `json:"parties"`
	ContractDate       string         `json:"contract_date,omitempty"`
	Jurisdiction       string         `json:"jurisdiction,omitempty"`
	Clauses            []risk.Clause  `json:"clauses"`
	OverallRiskFactors []string       `json:"overall_risk_factors,omitempty"`
	RiskMetadata       risk.Composite `json:"risk_metadata"`
	AnalyzedAt         time.Time      `json:"analyzed_at"`
}

type Analyzer struct {
	model    llm.Caller
	maxChars int
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Analyzer)

func WithMaxChars(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxChars = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New builds an Analyzer. model may be nil; Analyze then reports ErrNotConfigured.
func New(model llm.Caller, opts ...Option) *Analyzer {
	a := &Analyzer{
		model:    model,
		maxChars: DefaultMaxChars,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Configured reports whether a model is attached.
func (a *Analyzer) Configured() bool { return a.model != nil }

// Analyze asks the model for a clause breakdown and scores it.
func (a *Analyzer) Analyze(ctx context.Context, text, typeHint string) (*Result, error) {
	if a.model == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContract
	}
	if typeHint == "" {
		typeHint = DefaultTypeHint
	}

	raw, err := a.model.Call(ctx, buildPrompt(truncate(text, a.maxChars), typeHint), systemPrompt)
	if err != nil {
		return nil, classify(err)
	}

	var res Result
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		a.logger.Warn("unparsable model response", "error", err, "bytes", len(raw))
		return nil, &ParseError{Raw: raw, Err: err}
	}

	return a.Score(&res), nil
}

// Score attaches clause scores and the composite to a decoded result. The
// returned Result is a copy; res is not modified.
func (a *Analyzer) Score(res *Result) *Result {
	out := *res
	out.Clauses = risk.ScoreClauses(res.Clauses)
	out.RiskMetadata = risk.AggregateClauses(out.Clauses)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.AnalyzedAt.IsZero() {
		out.AnalyzedAt = a.now().UTC()
	}
	a.logger.Info("contract scored",
		"id", out.ID,
		"clauses", len(out.Clauses),
		"score", out.RiskMetadata.Score,
		"level", out.RiskMetadata.Level)
	return &out
}

// RiskyClauses returns clauses the model labelled high or medium, or whose
// score is above 4.
func RiskyClauses(res *Result) []risk.Clause {
	var out []risk.Clause
	for _, c := range res.Clauses {
		lvl := strings.ToLower(c.RiskLevel)
		if lvl == "high" || lvl == "medium" || c.Score() > 4 {
			out = append(out, c)
		}
	}
	return out
}

func classify(err error) error {
	switch llm.APIStatus(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return fmt.Errorf("analysis failed: %w", err)
}

// stripFences extracts the body of a ```json block, or failing that a bare ``` block.
func stripFences(s string) string {
	if _, after, ok := strings.Cut(s, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(s, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
