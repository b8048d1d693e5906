// Package service implements the ontology explorer.
//
// An Explorer fetches an ontology document, decodes it into a fresh
// in-memory triple store and derives the views the page and API show:
// the summary, the class hierarchy graph, per-class properties,
// relationships between two classes, sample triples and SPARQL results.
//
// # Interactions
//
// Explore answers one Request with one Response. Each call loads its own
// Ontology and closes it before returning, so nothing is shared between
// requests except the metrics collectors.
//
// # Errors
//
// A *LoadError means the ontology could not be fetched or decoded and no
// other view exists. A *QueryError means only the SPARQL query failed.
// Both are reported inside the Response by Explore and returned as errors
// by Load and Query.
package service
