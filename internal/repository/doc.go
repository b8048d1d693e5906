// Package repository defines the data access interfaces for Ontoscope.
//
// A TripleStore holds exactly one loaded ontology graph. It is created for
// a single interaction, filled once from the decoded document, queried,
// and closed. Nothing outlives the interaction.
//
// # TripleStore Interface
//
// The interface covers the pattern lookups the explorer needs (subjects of
// a predicate/object pair, objects of a subject/predicate pair), ordered
// iteration for sample triples, and SPARQL evaluation.
//
// # SQLite Implementation
//
// The sqlite implementation keeps triples in an in-memory database:
//
// - Terms are stored by their N-Triples key
// - A unique index drops duplicate triples
// - An autoincrement sequence preserves parse order
// - SPARQL basic graph patterns run as self-joins over the triple table
//
// # Testing
//
// The sqlite store is tested against a small in-memory animal ontology.
package repository
