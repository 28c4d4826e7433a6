package risk

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrScoreOutOfRange reports a clause score outside [0, MaxClauseScore].
// Zero is allowed since it stands for an unscored clause.
var ErrScoreOutOfRange = errors.New("clause score out of range")

// Level is the contract level risk tier.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

const (
	highThreshold   = 7.0
	mediumThreshold = 4.0

	// HighRiskClauseScore is the clause score at which a clause counts as high risk.
	HighRiskClauseScore = 7

	averageWeight = 0.4
	maxWeight     = 0.6
)

// Composite is the contract level risk summary.
type Composite struct {
	Score           float64 `json:"score"`
	Level           Level   `json:"level"`
	MaxClauseScore  int     `json:"max_clause_score"`
	HighRiskClauses int     `json:"high_risk_clauses"`
}

// LevelFor maps a composite score to its tier.
func LevelFor(score float64) Level {
	switch {
	case score >= highThreshold:
		return LevelHigh
	case score >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Aggregate combines per-clause scores into a composite. The composite leans
// on the worst clause: 40% average, 60% maximum. An empty input yields a zero
// Low composite with every field present.
func Aggregate(scores []int) Composite {
	if len(scores) == 0 {
		return Composite{Score: 0, Level: LevelLow}
	}

	total, maxScore, highCount := 0, 0, 0
	for _, s := range scores {
		total += s
		if s > maxScore {
			maxScore = s
		}
		if s >= HighRiskClauseScore {
			highCount++
		}
	}

	avg := float64(total) / float64(len(scores))
	composite := avg*averageWeight + float64(maxScore)*maxWeight

	return Composite{
		Score:           roundTenths(composite),
		Level:           LevelFor(composite),
		MaxClauseScore:  maxScore,
		HighRiskClauses: highCount,
	}
}

// ValidateScores rejects any score below 0 or above MaxClauseScore.
func ValidateScores(scores []int) error {
	for i, s := range scores {
		if s < 0 || s > MaxClauseScore {
			return fmt.Errorf("%w: score %d at index %d", ErrScoreOutOfRange, s, i)
		}
	}
	return nil
}

// AggregateClauses aggregates clause scores. Unscored clauses count as 0.
func AggregateClauses(clauses []Clause) Composite {
	scores := make([]int, len(clauses))
	for i, c := range clauses {
		scores[i] = c.Score()
	}
	return Aggregate(scores)
}

// roundTenths rounds to one decimal using the exact binary value, ties to even.
func roundTenths(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}
