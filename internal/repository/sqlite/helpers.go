package sqlite

import (
	"database/sql"
	"fmt"

	"ontoscope/internal/domain"
)

// ============================================================================
// Term Encoding Helpers
// ============================================================================

// tripleArgs returns the column values for an insert of t
func tripleArgs(t domain.Triple) []any {
	return []any{t.Subject.Key(), t.Predicate.Key(), t.Object.Key()}
}

// decodeTriple rebuilds a triple from its stored column values
func decodeTriple(s, p, o string) (domain.Triple, error) {
	var terms [3]domain.Term
	for i, key := range []string{s, p, o} {
		t, err := domain.ParseKey(key)
		if err != nil {
			return domain.Triple{}, fmt.Errorf("failed to decode term %q: %w", key, err)
		}
		terms[i] = t
	}
	return domain.NewTriple(terms[0], terms[1], terms[2]), nil
}

// scanTerms reads a single column of stored terms
func scanTerms(rows *sql.Rows) ([]domain.Term, error) {
	var terms []domain.Term
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan term: %w", err)
		}
		t, err := domain.ParseKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to decode term %q: %w", key, err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating terms: %w", err)
	}
	return terms, nil
}
