package domain

import "sort"

// PropertyIndex maps classes to the properties that reference them. It is
// built once per loaded ontology and is read-only afterwards.
type PropertyIndex struct {
	props    []Property
	byDomain map[string][]int
	byRange  map[string][]int
}

// NewPropertyIndex indexes props by domain and range class. Properties are
// kept in IRI order.
func NewPropertyIndex(props []Property) *PropertyIndex {
	sorted := make([]Property, len(props))
	copy(sorted, props)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].IRI < sorted[j].IRI })

	idx := &PropertyIndex{
		props:    sorted,
		byDomain: make(map[string][]int),
		byRange:  make(map[string][]int),
	}
	for i, p := range sorted {
		for _, d := range SortedUnique(p.Domains) {
			idx.byDomain[d] = append(idx.byDomain[d], i)
		}
		for _, r := range SortedUnique(p.Ranges) {
			idx.byRange[r] = append(idx.byRange[r], i)
		}
	}
	return idx
}

// Properties returns every indexed property
func (idx *PropertyIndex) Properties() []Property {
	out := make([]Property, len(idx.props))
	copy(out, idx.props)
	return out
}

// Len returns the number of indexed properties
func (idx *PropertyIndex) Len() int { return len(idx.props) }

// PropertiesOf returns the properties whose domain includes class
func (idx *PropertyIndex) PropertiesOf(class string) []Property {
	positions := idx.byDomain[class]
	out := make([]Property, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.props[i])
	}
	return out
}

// PropertiesInto returns the properties whose range includes class
func (idx *PropertyIndex) PropertiesInto(class string) []Property {
	positions := idx.byRange[class]
	out := make([]Property, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.props[i])
	}
	return out
}

// Relationships returns the direct relationships from one class to another:
// every property with from in its domains and to in its ranges.
func (idx *PropertyIndex) Relationships(from, to string) []Relationship {
	var out []Relationship
	for _, i := range idx.byDomain[from] {
		if idx.props[i].HasRange(to) {
			out = append(out, Relationship{From: from, Property: idx.props[i].IRI, To: to})
		}
	}
	return out
}
