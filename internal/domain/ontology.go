package domain

import "sort"

// Property is an RDF property with its declared domains and ranges
type Property struct {
	IRI     string   `json:"iri" yaml:"iri"`
	Domains []string `json:"domains" yaml:"domains"`
	Ranges  []string `json:"ranges" yaml:"ranges"`
}

// HasDomain reports whether class is one of the property's domains
func (p Property) HasDomain(class string) bool {
	return contains(p.Domains, class)
}

// HasRange reports whether class is one of the property's ranges
func (p Property) HasRange(class string) bool {
	return contains(p.Ranges, class)
}

// Relationship is a property linking a domain class to a range class
type Relationship struct {
	From     string `json:"from" yaml:"from"`
	Property string `json:"property" yaml:"property"`
	To       string `json:"to" yaml:"to"`
}

// Summary describes a loaded ontology
type Summary struct {
	URL           string   `json:"url" yaml:"url"`
	ClassCount    int      `json:"class_count" yaml:"class_count"`
	PropertyCount int      `json:"property_count" yaml:"property_count"`
	TripleCount   int      `json:"triple_count" yaml:"triple_count"`
	Classes       []string `json:"classes" yaml:"classes"`
	Properties    []string `json:"properties" yaml:"properties"`
}

// NewSummary builds a summary; class and property lists are sorted
func NewSummary(url string, classes []string, props []Property, tripleCount int) *Summary {
	sortedClasses := SortedUnique(classes)
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.IRI)
	}
	names = SortedUnique(names)
	return &Summary{
		URL:           url,
		ClassCount:    len(sortedClasses),
		PropertyCount: len(names),
		TripleCount:   tripleCount,
		Classes:       sortedClasses,
		Properties:    names,
	}
}

// Report is the exportable view of one loaded ontology
type Report struct {
	Summary    *Summary        `json:"summary" yaml:"summary"`
	Hierarchy  []HierarchyEdge `json:"hierarchy" yaml:"hierarchy"`
	Properties []Property      `json:"properties" yaml:"properties"`
	Samples    []Triple        `json:"sample_triples" yaml:"sample_triples"`
}

// SortedUnique returns a sorted copy of ids without duplicates
func SortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
