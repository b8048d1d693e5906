// Package handler implements the HTTP layer of Ontoscope.
//
// ExplorerHandler serves the explorer page at / and a JSON API under /api
// that exposes the same views: summary, hierarchy, class properties,
// relationships, sample triples, SPARQL queries and report export. Every
// request loads the ontology it names with the url parameter, falling back
// to the configured default.
//
// # Errors
//
// Error responses are JSON with an {error, details} structure. An ontology
// that cannot be loaded is 502 Bad Gateway; a failed SPARQL query is 400.
// The page reports both inline instead.
//
// # Middleware
//
// Chain composes Recover, CORS and Logger. Logger assigns each request an
// X-Request-ID and records it in the metrics.
package handler
