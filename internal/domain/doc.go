// Package domain defines the core domain types for the Ontoscope ontology explorer.
//
// This package contains the RDF value types and the derived ontology views
// the explorer presents: terms and triples, classes and properties, the class
// hierarchy graph, and SPARQL query results.
//
// # Core Types
//
// Term is a single RDF node (IRI, blank node, or literal). Its Key is the
// N-Triples encoding and defines term identity.
//
// Triple is a subject-predicate-object statement.
//
// Property holds an RDF property with its rdfs:domain and rdfs:range classes.
//
// # Class Hierarchy
//
// BuildHierarchy turns class-to-superclass facts into a directed Hierarchy
// whose edges point from a superclass to each direct subclass. A node's
// out-degree is therefore its subclass count. Only identifiers that touch an
// edge are nodes; cycles are kept and never rejected.
//
// DeriveGraph converts a Hierarchy into the node/edge list consumed by the
// vis-network renderer.
//
// # Property Index
//
// PropertyIndex maps classes to the properties that name them as domain or
// range, so per-class lookups and relationship searches avoid rescanning
// every property.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
package domain
