package sparql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ontoscope/internal/domain"
)

// The planner targets a table with columns seq (insertion order), s, p
// and o. Terms are stored by their N-Triples key.
const TableName = "triples"

var positionColumns = [3]string{"s", "p", "o"}

// Limits bounds the work done for one query
type Limits struct {
	// MaxScan caps the rows read from the join before filtering
	MaxScan int
	// MaxRows caps the rows returned to the caller
	MaxRows int
}

// DefaultLimits are used when a caller passes zero values
var DefaultLimits = Limits{MaxScan: 100000, MaxRows: 1000}

func (l Limits) withDefaults() Limits {
	if l.MaxScan <= 0 {
		l.MaxScan = DefaultLimits.MaxScan
	}
	if l.MaxRows <= 0 {
		l.MaxRows = DefaultLimits.MaxRows
	}
	return l
}

// Plan is the SQL translation of a query's basic graph pattern
type Plan struct {
	SQL  string
	Args []any
	// Columns names the variable bound by each selected column
	Columns []string
	// Pushed is true when LIMIT and OFFSET are applied by the SQL itself
	Pushed bool
	// ScanLimit is the LIMIT placed on the SQL
	ScanLimit int
}

// Plan translates the triple patterns into a self-join over the triple
// table. Each pattern gets its own alias; the first occurrence of a
// variable binds a column and later occurrences become join conditions.
func (q *Query) Plan(limits Limits) *Plan {
	limits = limits.withDefaults()
	if len(q.Patterns) == 0 {
		return nil
	}

	var (
		from    []string
		where   []string
		args    []any
		columns []string
		selects []string
		order   []string
		bound   = make(map[string]string)
	)

	for i, pat := range q.Patterns {
		alias := fmt.Sprintf("t%d", i)
		from = append(from, TableName+" "+alias)
		order = append(order, alias+".seq")

		for j, n := range pat.nodes() {
			col := alias + "." + positionColumns[j]
			if !n.IsVar() {
				where = append(where, col+" = ?")
				args = append(args, n.Term.Key())
				continue
			}
			if prev, ok := bound[n.Var]; ok {
				where = append(where, col+" = "+prev)
				continue
			}
			bound[n.Var] = col
			columns = append(columns, n.Var)
			selects = append(selects, col)
		}
	}

	if len(selects) == 0 {
		selects = []string{"1"}
	}

	plan := &Plan{Columns: columns, ScanLimit: limits.MaxScan}
	switch {
	case q.Form == domain.QueryFormAsk && len(q.Filters) == 0:
		plan.ScanLimit = 1
	case q.Form == domain.QueryFormSelect && len(q.Filters) == 0 && len(q.Order) == 0 && !q.Distinct:
		plan.Pushed = true
		if q.Limit >= 0 && q.Limit < plan.ScanLimit {
			plan.ScanLimit = q.Limit
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(from, ", "))
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(order, ", "))
	sb.WriteString(" LIMIT ?")
	args = append(args, plan.ScanLimit)
	if plan.Pushed && q.Offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, q.Offset)
	}

	plan.SQL = sb.String()
	plan.Args = args
	return plan
}

// Querier is the subset of *sql.DB and *sql.Conn used to run a plan
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execute runs q against a triple table reachable through db
func Execute(ctx context.Context, db Querier, q *Query, limits Limits) (*domain.QueryResult, error) {
	limits = limits.withDefaults()

	plan := q.Plan(limits)
	if plan == nil {
		// An empty group pattern has exactly one empty solution
		return q.Finish([]Solution{{}}, false, limits), nil
	}

	rows, err := db.QueryContext(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var solutions []Solution
	width := len(plan.Columns)
	if width == 0 {
		width = 1
	}
	raw := make([]sql.NullString, width)
	dest := make([]any, width)
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		sol := make(Solution, len(plan.Columns))
		for i, v := range plan.Columns {
			t, err := domain.ParseKey(raw[i].String)
			if err != nil {
				return nil, fmt.Errorf("failed to decode ?%s: %w", v, err)
			}
			sol[v] = t
		}
		solutions = append(solutions, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solutions: %w", err)
	}

	scanTruncated := len(solutions) >= plan.ScanLimit && plan.ScanLimit == limits.MaxScan
	if plan.Pushed {
		q = q.withoutSlice()
	}
	return q.Finish(solutions, scanTruncated, limits), nil
}

// withoutSlice returns a copy of q whose LIMIT and OFFSET were already applied
func (q *Query) withoutSlice() *Query {
	c := *q
	c.Limit = -1
	c.Offset = 0
	return &c
}
