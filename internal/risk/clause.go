package risk

// Clause is one provision of a contract as proposed by the model.
type Clause struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Text           string `json:"text"`
	Type           string `json:"type"`
	RiskLevel      string `json:"risk_level,omitempty"` // model's own label, informational
	Explanation    string `json:"explanation,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	RiskScore      *int   `json:"risk_score,omitempty"`
}

// Score returns the clause score, or 0 when it has not been scored.
func (c Clause) Score() int {
	if c.RiskScore == nil {
		return 0
	}
	return *c.RiskScore
}

// ScoreClause returns a copy of c scored on its text followed by its title.
func ScoreClause(c Clause) Clause {
	s := Evaluate(c.Text+" "+c.Title, c.Type)
	c.RiskScore = &s
	return c
}

// ScoreUnscored scores only the clauses that carry no score, keeping
// supplied scores as given.
func ScoreUnscored(clauses []Clause) []Clause {
	out := make([]Clause, len(clauses))
	for i, c := range clauses {
		if c.RiskScore == nil {
			c = ScoreClause(c)
		}
		out[i] = c
	}
	return out
}

// ScoreClauses scores every clause into a new slice.
func ScoreClauses(clauses []Clause) []Clause {
	out := make([]Clause, len(clauses))
	for i, c := range clauses {
		out[i] = ScoreClause(c)
	}
	return out
}
