package service

import "fmt"

// LoadError reports an ontology that could not be fetched or decoded.
// Nothing else about the ontology can be shown.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// QueryError reports a SPARQL query that failed to parse or evaluate.
// The rest of the exploration is unaffected.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }
