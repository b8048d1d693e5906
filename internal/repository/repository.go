package repository

import (
	"context"

	"ontoscope/internal/domain"
	"ontoscope/internal/sparql"
)

// TripleStore defines the interface for access to one loaded RDF graph
type TripleStore interface {
	// Write operations
	Add(ctx context.Context, triples []domain.Triple) (int, error)

	// Read operations
	Len(ctx context.Context) (int, error)
	Triples(ctx context.Context, limit int) ([]domain.Triple, error)
	Subjects(ctx context.Context, predicate, object domain.Term) ([]domain.Term, error)
	Objects(ctx context.Context, subject, predicate domain.Term) ([]domain.Term, error)

	// Query evaluates a parsed SPARQL query against the graph
	Query(ctx context.Context, q *sparql.Query, limits sparql.Limits) (*domain.QueryResult, error)

	// Close releases resources
	Close() error
}
