package risk

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		expected int
	}{
		{"empty input keeps floor", "", "", 1},
		{"no keywords", "Standard notices clause", "", 1},
		{"high keyword", "This clause imposes a penalty of $500/day", "", 7},
		{"high keyword is case insensitive", "LIQUIDATED DAMAGES apply", "", 7},
		{"medium keyword", "Confidentiality obligations survive", "", 5},
		{"medium does not lower high", "A penalty applies and confidentiality is required", "", 7},
		{"category weight", "text", "Indemnity", 8},
		{"category substring", "text", "Mutual Indemnity Clause", 8},
		{"category is not token matched", "text", "Indemnification Clause", 1},
		{"highest category wins", "text", "Penalty / Jurisdiction", 9},
		{"low category lifted by medium text", "confidentiality of data", "Confidentiality", 5},
		{"medium guard keeps category weight", "automatic renewal each year", "Auto-Renewal", 6},
		{"category beats high text", "governing law is India", "Unilateral Termination", 9},
		{"booster", "Tenant shall pay rent monthly", "", 2},
		{"booster applies once", "Vendor shall pay and is liable for losses", "", 2},
		{"booster on top of high", "Vendor is liable for any penalty", "", 8},
		{"booster capped", "Vendor shall pay the penalty", "Penalty", 10},
		{"low keywords are inert", "Definitions, recitals and force majeure", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.text, tt.category))
		})
	}
}

func TestEvaluate_BoosterAdditivity(t *testing.T) {
	base := Evaluate("Tenant rent monthly", "")
	boosted := Evaluate("Tenant shall pay rent monthly", "")
	assert.Equal(t, base+1, boosted)
}

func TestEvaluate_Bounds(t *testing.T) {
	texts := []string{
		"",
		"penalty indemnify arbitration exclusivity shall pay liable for",
		"late fee payment terms non-solicitation",
		"नोटिस",
	}
	categories := []string{"", "penalty", "ip transfer", "unilateral termination penalty", "unknown"}

	for _, text := range texts {
		for _, category := range categories {
			s := Evaluate(text, category)
			assert.GreaterOrEqual(t, s, MinClauseScore, "text=%q category=%q", text, category)
			assert.LessOrEqual(t, s, MaxClauseScore, "text=%q category=%q", text, category)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	text := "The Vendor shall pay liquidated damages for late delivery"
	first := Evaluate(text, "Penalty")

	var wg sync.WaitGroup
	results := make([]int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Evaluate(text, "Penalty")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestCategoryWeight(t *testing.T) {
	assert.Equal(t, 0, CategoryWeight(""))
	assert.Equal(t, 5, CategoryWeight("Jurisdiction"))
	assert.Equal(t, 9, CategoryWeight("penalty and arbitration"))
}

func TestLowSeverityKeywords_ReturnsCopy(t *testing.T) {
	kws := LowSeverityKeywords()
	assert.Contains(t, kws, "force majeure")
	kws[0] = "changed"
	assert.Equal(t, "definitions", LowSeverityKeywords()[0])
}
