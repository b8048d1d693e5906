package domain

import "fmt"

// Triple is a single subject-predicate-object statement
type Triple struct {
	Subject   Term `json:"subject" yaml:"subject"`
	Predicate Term `json:"predicate" yaml:"predicate"`
	Object    Term `json:"object" yaml:"object"`
}

// NewTriple creates a triple
func NewTriple(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// String renders the triple the way the explorer lists samples
func (t Triple) String() string {
	return fmt.Sprintf("%s -- %s --> %s", t.Subject, t.Predicate, t.Object)
}

// Validate checks the positional constraints of RDF
func (t Triple) Validate() error {
	if t.Subject.IsZero() || t.Predicate.IsZero() || t.Object.IsZero() {
		return fmt.Errorf("triple has an empty term")
	}
	if t.Subject.IsLiteral() {
		return fmt.Errorf("literal %s cannot be a subject", t.Subject.Key())
	}
	if !t.Predicate.IsIRI() {
		return fmt.Errorf("predicate %s must be an IRI", t.Predicate.Key())
	}
	return nil
}
