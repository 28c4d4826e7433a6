package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/ericksa/legalis/internal/audit"
	"github.com/ericksa/legalis/internal/extract"
	"github.com/ericksa/legalis/internal/history"
	"github.com/ericksa/legalis/internal/metrics"
	"github.com/ericksa/legalis/internal/report"
	"github.com/ericksa/legalis/internal/risk"
	"github.com/ericksa/legalis/internal/templates"
)

const (
	defaultListLimit = 20
	// recentCap bounds the in-memory analyses kept for audit_save and
	// report_export when no history store is attached.
	recentCap = 64
)

var (
	ErrHistoryDisabled = errors.New("history store is not enabled")
	ErrReportDisabled  = errors.New("report export is not enabled")
	ErrLedgerDisabled  = errors.New("audit ledger is not configured")
)

// ContractWorker exposes contract scoring, analysis and the audit trail as tools.
type ContractWorker struct {
	analyzer *analysis.Analyzer
	ledger   *audit.Ledger
	history  *history.Store
	exporter *report.Exporter
	docs     *DocumentWorker
	urlTTL   time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	recent map[string]*analysis.Result
	order  []string
}

func NewContractWorker(analyzer *analysis.Analyzer, ledger *audit.Ledger, logger *slog.Logger) *ContractWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractWorker{
		analyzer: analyzer,
		ledger:   ledger,
		logger:   logger,
		recent:   make(map[string]*analysis.Result),
	}
}

// SetHistory attaches the analysis history store.
func (w *ContractWorker) SetHistory(s *history.Store) { w.history = s }

// SetExporter attaches report export with presigned URLs valid for urlTTL.
func (w *ContractWorker) SetExporter(e *report.Exporter, urlTTL time.Duration) {
	w.exporter = e
	w.urlTTL = urlTTL
}

// SetDocuments lets analyze read contracts from disk.
func (w *ContractWorker) SetDocuments(d *DocumentWorker) { w.docs = d }

func (w *ContractWorker) GetTools() []ToolDef {
	return []ToolDef{
		{Name: "risk_score", Description: "Score one clause from 1 to 10 by keyword severity and category"},
		{Name: "risk_composite", Description: "Aggregate clause scores into a composite score and level"},
		{Name: "analyze", Description: "Analyze a contract with the model and score every clause"},
		{Name: "audit_save", Description: "Append a score and summary to the audit log"},
		{Name: "audit_list", Description: "List the most recent audit log entries"},
		{Name: "history_list", Description: "List stored analyses"},
		{Name: "history_get", Description: "Get a stored analysis by ID"},
		{Name: "report_export", Description: "Export an analysis report to object storage"},
		{Name: "template", Description: "Get a contract template, or list template names"},
		{Name: "detect_language", Description: "Detect whether contract text is English or Hindi"},
	}
}

func (w *ContractWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	switch strings.TrimPrefix(name, "contract_") {
	case "risk_score":
		return w.riskScore(ctx, input)
	case "risk_composite":
		return w.riskComposite(ctx, input)
	case "analyze":
		return w.analyze(ctx, input)
	case "audit_save":
		return w.auditSave(ctx, input)
	case "audit_list":
		return w.auditList(ctx, input)
	case "history_list":
		return w.historyList(ctx, input)
	case "history_get":
		return w.historyGet(ctx, input)
	case "report_export":
		return w.reportExport(ctx, input)
	case "template":
		return w.template(ctx, input)
	case "detect_language":
		return w.detectLanguage(ctx, input)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func (w *ContractWorker) riskScore(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	score := risk.Evaluate(req.Text, req.Category)
	metrics.ObserveClause(score)
	return json.Marshal(map[string]any{"score": score})
}

func (w *ContractWorker) riskComposite(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Scores  []int         `json:"scores"`
		Clauses []risk.Clause `json:"clauses"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}

	if len(req.Clauses) > 0 {
		scored := risk.ScoreUnscored(req.Clauses)
		scores := make([]int, len(scored))
		for i, cl := range scored {
			scores[i] = cl.Score()
		}
		if err := risk.ValidateScores(scores); err != nil {
			return nil, err
		}
		c := risk.Aggregate(scores)
		metrics.ObserveComposite(c)
		return json.Marshal(map[string]any{"composite": c, "clauses": scored})
	}
	if err := risk.ValidateScores(req.Scores); err != nil {
		return nil, err
	}
	c := risk.Aggregate(req.Scores)
	metrics.ObserveComposite(c)
	return json.Marshal(c)
}

func (w *ContractWorker) analyze(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Text     string `json:"text"`
		Path     string `json:"path"`
		TypeHint string `json:"type_hint"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}

	text := req.Text
	if text == "" && req.Path != "" {
		if w.docs == nil {
			return nil, errors.New("document access is not configured")
		}
		var err error
		if text, err = w.docs.ReadText(req.Path); err != nil {
			return nil, err
		}
	}

	res, err := w.Analyze(ctx, text, req.TypeHint)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

// Analyze runs the analyzer, records metrics and keeps the result for later
// audit and export calls.
func (w *ContractWorker) Analyze(ctx context.Context, text, typeHint string) (*analysis.Result, error) {
	res, err := w.analyzer.Analyze(ctx, text, typeHint)
	metrics.ObserveAnalysis(outcome(err))
	if err != nil {
		return nil, err
	}
	for _, c := range res.Clauses {
		metrics.ObserveClause(c.Score())
	}
	metrics.ObserveComposite(res.RiskMetadata)

	w.remember(res)
	if w.history != nil {
		if err := w.history.Save(ctx, res); err != nil {
			w.logger.Warn("failed to store analysis", "id", res.ID, "error", err)
		}
	}
	return res, nil
}

func outcome(err error) string {
	var perr *analysis.ParseError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &perr):
		return metrics.OutcomeParseError
	case errors.Is(err, analysis.ErrNotConfigured):
		return metrics.OutcomeUnavailable
	case errors.Is(err, analysis.ErrPermissionDenied):
		return metrics.OutcomeAuthError
	default:
		return metrics.OutcomeModelError
	}
}

func (w *ContractWorker) auditSave(ctx context.Context, input json.RawMessage) ([]byte, error) {
	if w.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	var req struct {
		AnalysisID string   `json:"analysis_id"`
		Score      *float64 `json:"score"`
		Summary    string   `json:"summary"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}

	var entry audit.Entry
	switch {
	case req.AnalysisID != "":
		res, err := w.lookup(ctx, req.AnalysisID)
		if err != nil {
			return nil, err
		}
		entry = audit.Entry{Score: res.RiskMetadata.Score, Summary: res.Summary}
	case req.Score != nil:
		entry = audit.Entry{Score: *req.Score, Summary: req.Summary}
	default:
		return nil, errors.New("analysis_id or score required")
	}

	entry.Timestamp = audit.Now()
	if err := w.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}
	metrics.ObserveAuditEntry()
	return json.Marshal(map[string]any{"success": true, "entry": entry})
}

func (w *ContractWorker) auditList(ctx context.Context, input json.RawMessage) ([]byte, error) {
	if w.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	var req struct {
		Limit int `json:"limit"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	entries, err := w.ledger.Tail(req.Limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return json.Marshal(entries)
}

func (w *ContractWorker) historyList(ctx context.Context, input json.RawMessage) ([]byte, error) {
	if w.history == nil {
		return nil, ErrHistoryDisabled
	}
	var req struct {
		Limit int `json:"limit"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	list, err := w.history.List(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []history.Summary{}
	}
	return json.Marshal(list)
}

func (w *ContractWorker) historyGet(ctx context.Context, input json.RawMessage) ([]byte, error) {
	if w.history == nil {
		return nil, ErrHistoryDisabled
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	res, err := w.history.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func (w *ContractWorker) reportExport(ctx context.Context, input json.RawMessage) ([]byte, error) {
	if w.exporter == nil {
		return nil, ErrReportDisabled
	}
	var req struct {
		AnalysisID string `json:"analysis_id"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	res, err := w.lookup(ctx, req.AnalysisID)
	if err != nil {
		return nil, err
	}
	out, err := w.exporter.Export(ctx, res, w.urlTTL)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (w *ContractWorker) template(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Name string `json:"name"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return json.Marshal(map[string]any{"templates": templates.Names()})
	}
	t, err := templates.Get(req.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

func (w *ContractWorker) detectLanguage(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Text string `json:"text"`
	}
	if err := unmarshalInput(input, &req); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"language": extract.DetectLanguage(req.Text)})
}

func (w *ContractWorker) remember(res *analysis.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.recent[res.ID]; !ok {
		w.order = append(w.order, res.ID)
	}
	w.recent[res.ID] = res
	for len(w.order) > recentCap {
		delete(w.recent, w.order[0])
		w.order = w.order[1:]
	}
}

// lookup finds an analysis in memory first, then in the history store.
func (w *ContractWorker) lookup(ctx context.Context, id string) (*analysis.Result, error) {
	if id == "" {
		return nil, errors.New("analysis_id required")
	}
	w.mu.Lock()
	res, ok := w.recent[id]
	w.mu.Unlock()
	if ok {
		return res, nil
	}
	if w.history != nil {
		return w.history.Get(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", history.ErrNotFound, id)
}
