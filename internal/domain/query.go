package domain

// QueryForm is the kind of SPARQL query that produced a result
type QueryForm string

const (
	QueryFormSelect QueryForm = "SELECT"
	QueryFormAsk    QueryForm = "ASK"
)

// QueryResult holds the solutions of a SPARQL query. Each row is aligned
// with Vars; an unbound variable is a zero Term.
type QueryResult struct {
	Form      QueryForm `json:"form"`
	Vars      []string  `json:"vars,omitempty"`
	Rows      [][]Term  `json:"rows,omitempty"`
	Boolean   bool      `json:"boolean,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`
}

// Binding returns the value of variable name in row i
func (r *QueryResult) Binding(i int, name string) (Term, bool) {
	if i < 0 || i >= len(r.Rows) {
		return Term{}, false
	}
	for j, v := range r.Vars {
		if v == name {
			t := r.Rows[i][j]
			return t, !t.IsZero()
		}
	}
	return Term{}, false
}
