package sparql

import (
	"sort"
	"strings"

	"ontoscope/internal/domain"
)

// Finish applies the solution modifiers to the raw solutions of the
// basic graph pattern: FILTER, ORDER BY, projection, DISTINCT, OFFSET and
// LIMIT, in that order. A filter that raises an error rejects the
// solution.
func (q *Query) Finish(solutions []Solution, scanTruncated bool, limits Limits) *domain.QueryResult {
	limits = limits.withDefaults()

	kept := solutions[:0:0]
	for _, s := range solutions {
		if q.accept(s) {
			kept = append(kept, s)
		}
	}

	if q.Form == domain.QueryFormAsk {
		return &domain.QueryResult{Form: domain.QueryFormAsk, Boolean: len(kept) > 0}
	}

	if len(q.Order) > 0 {
		q.sortSolutions(kept)
	}

	vars := q.ResultVars()
	rows := make([][]domain.Term, 0, len(kept))
	seen := make(map[string]bool)
	for _, s := range kept {
		row := make([]domain.Term, len(vars))
		for i, v := range vars {
			row[i] = s[v]
		}
		if q.Distinct {
			k := rowKey(row)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		rows = append(rows, row)
	}

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[q.Offset:]
		}
	}
	if q.Limit >= 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}

	truncated := scanTruncated
	if len(rows) > limits.MaxRows {
		rows = rows[:limits.MaxRows]
		truncated = true
	}

	return &domain.QueryResult{
		Form:      domain.QueryFormSelect,
		Vars:      vars,
		Rows:      rows,
		Truncated: truncated,
	}
}

func (q *Query) accept(s Solution) bool {
	for _, f := range q.Filters {
		ok, err := evalBool(f, s)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (q *Query) sortSolutions(solutions []Solution) {
	keys := make([][]domain.Term, len(solutions))
	for i, s := range solutions {
		keys[i] = make([]domain.Term, len(q.Order))
		for j, k := range q.Order {
			// An expression error leaves the key unbound
			if v, err := k.Expr.Eval(s); err == nil {
				keys[i][j] = v
			}
		}
	}

	idx := make([]int, len(solutions))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		for j, k := range q.Order {
			c := orderTerms(ka[j], kb[j])
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]Solution, len(solutions))
	for i, j := range idx {
		sorted[i] = solutions[j]
	}
	copy(solutions, sorted)
}

func rowKey(row []domain.Term) string {
	var sb strings.Builder
	for _, t := range row {
		if !t.IsZero() {
			sb.WriteString(t.Key())
		}
		sb.WriteByte(0)
	}
	return sb.String()
}
