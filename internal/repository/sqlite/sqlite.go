package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"ontoscope/internal/domain"
	"ontoscope/internal/repository"
	"ontoscope/internal/sparql"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database
const MemoryDSN = ":memory:"

// Store implements repository.TripleStore using SQLite
type Store struct {
	db *sql.DB
}

var _ repository.TripleStore = (*Store)(nil)

// New creates a new SQLite triple store. An in-memory database lives only
// as long as its single connection, so the pool is pinned to one.
func New(dsn string) (*Store, error) {
	if dsn != MemoryDSN {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewMemory creates an empty in-memory store
func NewMemory() (*Store, error) {
	return New(MemoryDSN)
}

func (s *Store) migrate() error {
	// seq preserves the order triples were parsed in; the unique key gives
	// the table set semantics
	schema := `
	CREATE TABLE IF NOT EXISTS ` + sparql.TableName + ` (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		s TEXT NOT NULL,
		p TEXT NOT NULL,
		o TEXT NOT NULL,
		UNIQUE (s, p, o)
	);

	CREATE INDEX IF NOT EXISTS idx_triples_po ON ` + sparql.TableName + `(p, o);
	CREATE INDEX IF NOT EXISTS idx_triples_o ON ` + sparql.TableName + `(o);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Add inserts triples, skipping ones already present, and returns how many
// were new
func (s *Store) Add(ctx context.Context, triples []domain.Triple) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO `+sparql.TableName+` (s, p, o) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, t := range triples {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("invalid triple %s: %w", t, err)
		}
		res, err := stmt.ExecContext(ctx, tripleArgs(t)...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert triple %s: %w", t, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count inserted rows: %w", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit triples: %w", err)
	}
	return added, nil
}

// Len returns the number of distinct triples
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+sparql.TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count triples: %w", err)
	}
	return n, nil
}

// Triples returns up to limit triples in the order they were added.
// A limit of zero or less returns all of them.
func (s *Store) Triples(ctx context.Context, limit int) ([]domain.Triple, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s, p, o FROM `+sparql.TableName+`
		ORDER BY seq
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query triples: %w", err)
	}
	defer rows.Close()

	var triples []domain.Triple
	for rows.Next() {
		var subj, pred, obj string
		if err := rows.Scan(&subj, &pred, &obj); err != nil {
			return nil, fmt.Errorf("failed to scan triple: %w", err)
		}
		t, err := decodeTriple(subj, pred, obj)
		if err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating triples: %w", err)
	}
	return triples, nil
}

// Subjects returns the distinct subjects of triples with the given
// predicate and object, in order of first appearance
func (s *Store) Subjects(ctx context.Context, predicate, object domain.Term) ([]domain.Term, error) {
	return s.column(ctx, `
		SELECT s FROM `+sparql.TableName+`
		WHERE p = ? AND o = ?
		GROUP BY s
		ORDER BY MIN(seq)
	`, predicate.Key(), object.Key())
}

// Objects returns the distinct objects of triples with the given subject
// and predicate, in order of first appearance
func (s *Store) Objects(ctx context.Context, subject, predicate domain.Term) ([]domain.Term, error) {
	return s.column(ctx, `
		SELECT o FROM `+sparql.TableName+`
		WHERE s = ? AND p = ?
		GROUP BY o
		ORDER BY MIN(seq)
	`, subject.Key(), predicate.Key())
}

// Query evaluates q against the stored graph
func (s *Store) Query(ctx context.Context, q *sparql.Query, limits sparql.Limits) (*domain.QueryResult, error) {
	return sparql.Execute(ctx, s.db, q, limits)
}

// Close releases the database. An in-memory graph is discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) column(ctx context.Context, query string, args ...any) ([]domain.Term, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query terms: %w", err)
	}
	defer rows.Close()
	return scanTerms(rows)
}
