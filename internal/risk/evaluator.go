package risk

import "strings"

// weightedKeyword maps a category keyword to the base score it grants.
type weightedKeyword struct {
	Keyword string
	Weight  int
}

// Category weights, checked against the lower-cased clause type.
var categoryWeights = [...]weightedKeyword{
	{"penalty", 9},
	{"unilateral termination", 9},
	{"indemnity", 8},
	{"non-compete", 8},
	{"ip transfer", 8},
	{"confidentiality", 4},
	{"auto-renewal", 6},
	{"arbitration", 7},
	{"jurisdiction", 5},
}

var highKeywords = [...]string{
	"penalty",
	"liquidated damages",
	"unilateral termination",
	"termination for convenience",
	"indemnify",
	"indemnification",
	"non-compete",
	"exclusivity",
	"governing law",
	"arbitration",
}

var mediumKeywords = [...]string{
	"auto-renewal",
	"automatic renewal",
	"confidentiality",
	"non-solicitation",
	"payment terms",
	"late fee",
	"limitation of liability",
}

// Low severity keywords are kept for reference only. Evaluate never reads them.
var lowKeywords = [...]string{
	"definitions",
	"preamble",
	"recitals",
	"force majeure",
	"notices",
	"amendment",
}

var boosters = [...]string{"shall pay", "liable for"}

const (
	// MinClauseScore is the floor Evaluate returns for any clause.
	MinClauseScore = 1
	// MaxClauseScore is the ceiling for every clause score.
	MaxClauseScore = 10

	highScore   = 7
	mediumScore = 5
)

// Evaluate scores a single clause from its text and an optional category label.
// An empty category means no label was supplied. The result is always in
// [MinClauseScore, MaxClauseScore].
func Evaluate(text, category string) int {
	score := MinClauseScore
	text = strings.ToLower(text)
	category = strings.ToLower(category)

	if category != "" {
		for _, kw := range categoryWeights {
			if strings.Contains(category, kw.Keyword) {
				score = max(score, kw.Weight)
			}
		}
	}

	for _, kw := range highKeywords {
		if strings.Contains(text, kw) {
			score = max(score, highScore)
		}
	}

	// medium keywords only lift clauses that have not reached medium yet
	for _, kw := range mediumKeywords {
		if strings.Contains(text, kw) && score < mediumScore {
			score = max(score, mediumScore)
		}
	}

	for _, kw := range boosters {
		if strings.Contains(text, kw) {
			score++
			break
		}
	}

	return min(MaxClauseScore, score)
}

// LowSeverityKeywords returns a copy of the low severity keyword list.
func LowSeverityKeywords() []string {
	out := make([]string, len(lowKeywords))
	copy(out, lowKeywords[:])
	return out
}

// CategoryWeight returns the highest category weight matching category, or 0.
func CategoryWeight(category string) int {
	category = strings.ToLower(category)
	weight := 0
	for _, kw := range categoryWeights {
		if strings.Contains(category, kw.Keyword) {
			weight = max(weight, kw.Weight)
		}
	}
	return weight
}
