package metrics

import (
	"net/http"

	"github.com/ericksa/legalis/internal/risk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var scoreBuckets = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "legalis",
		Name:      "analyses_total",
		Help:      "Contract analyses by outcome.",
	}, []string{"outcome"})

	clauseScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "legalis",
		Name:      "clause_risk_score",
		Help:      "Distribution of clause risk scores.",
		Buckets:   scoreBuckets,
	})

	compositeScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "legalis",
		Name:      "composite_risk_score",
		Help:      "Distribution of contract composite risk scores by level.",
		Buckets:   scoreBuckets,
	}, []string{"level"})

	auditEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "legalis",
		Name:      "audit_entries_total",
		Help:      "Entries appended to the audit ledger.",
	})
)

const (
	OutcomeOK          = "ok"
	OutcomeParseError  = "parse_error"
	OutcomeAuthError   = "auth_error"
	OutcomeModelError  = "model_error"
	OutcomeUnavailable = "not_configured"
)

func ObserveAnalysis(outcome string) { analysesTotal.WithLabelValues(outcome).Inc() }

func ObserveClause(score int) { clauseScore.Observe(float64(score)) }

func ObserveComposite(c risk.Composite) {
	compositeScore.WithLabelValues(string(c.Level)).Observe(c.Score)
}

func ObserveAuditEntry() { auditEntries.Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
