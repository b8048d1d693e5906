package service

import (
	"context"
	"fmt"
	"strings"

	"ontoscope/internal/domain"
	"ontoscope/internal/repository"
)

// Ontology is one loaded graph together with the views derived from it.
// It is immutable after Load and must be closed when the interaction ends.
type Ontology struct {
	URL string

	store       repository.TripleStore
	tripleCount int
	classes     []string
	parents     map[string][]string
	properties  []domain.Property
	index       *domain.PropertyIndex
}

// nodeID is the string identity of a resource. Blank nodes keep their
// "_:" prefix so they never collide with an IRI.
func nodeID(t domain.Term) string {
	if t.IsBlank() {
		return "_:" + t.Value
	}
	return t.Value
}

func isBlankID(id string) bool {
	return strings.HasPrefix(id, "_:")
}

func nodeIDs(terms []domain.Term) []string {
	ids := make([]string, 0, len(terms))
	for _, t := range terms {
		ids = append(ids, nodeID(t))
	}
	return ids
}

// build derives classes, their parents and the property index from the
// loaded store
func (o *Ontology) build(ctx context.Context, propertyTypes []string) error {
	n, err := o.store.Len(ctx)
	if err != nil {
		return err
	}
	o.tripleCount = n

	rdfType := domain.NewIRI(domain.RDFType)
	classTerms, err := o.store.Subjects(ctx, rdfType, domain.NewIRI(domain.OWLClass))
	if err != nil {
		return fmt.Errorf("find classes: %w", err)
	}

	subClassOf := domain.NewIRI(domain.RDFSSubClassOf)
	o.parents = make(map[string][]string, len(classTerms))
	for _, c := range classTerms {
		parents, err := o.store.Objects(ctx, c, subClassOf)
		if err != nil {
			return fmt.Errorf("find superclasses of %s: %w", nodeID(c), err)
		}
		o.parents[nodeID(c)] = nodeIDs(parents)
	}
	o.classes = domain.SortedUnique(nodeIDs(classTerms))

	types := append([]string{domain.RDFProperty}, propertyTypes...)
	seen := make(map[string]bool)
	var propTerms []domain.Term
	for _, typ := range types {
		terms, err := o.store.Subjects(ctx, rdfType, domain.NewIRI(typ))
		if err != nil {
			return fmt.Errorf("find properties of type %s: %w", typ, err)
		}
		for _, t := range terms {
			if !seen[t.Key()] {
				seen[t.Key()] = true
				propTerms = append(propTerms, t)
			}
		}
	}

	domainPred := domain.NewIRI(domain.RDFSDomain)
	rangePred := domain.NewIRI(domain.RDFSRange)
	o.properties = make([]domain.Property, 0, len(propTerms))
	for _, p := range propTerms {
		domains, err := o.store.Objects(ctx, p, domainPred)
		if err != nil {
			return fmt.Errorf("find domains of %s: %w", nodeID(p), err)
		}
		ranges, err := o.store.Objects(ctx, p, rangePred)
		if err != nil {
			return fmt.Errorf("find ranges of %s: %w", nodeID(p), err)
		}
		o.properties = append(o.properties, domain.Property{
			IRI:     nodeID(p),
			Domains: nodeIDs(domains),
			Ranges:  nodeIDs(ranges),
		})
	}
	o.index = domain.NewPropertyIndex(o.properties)

	return nil
}

// Close releases the underlying store
func (o *Ontology) Close() error {
	return o.store.Close()
}

// TripleCount returns the number of distinct triples
func (o *Ontology) TripleCount() int { return o.tripleCount }

// Classes returns the sorted class identifiers
func (o *Ontology) Classes() []string {
	return append([]string(nil), o.classes...)
}

// Properties returns every property in IRI order
func (o *Ontology) Properties() []domain.Property {
	return o.index.Properties()
}

// Summary returns the class and property counts and lists
func (o *Ontology) Summary() *domain.Summary {
	return domain.NewSummary(o.URL, o.classes, o.properties, o.tripleCount)
}

// Hierarchy builds the subclass graph. With skipBlankParents, anonymous
// superclasses such as OWL restrictions are left out.
func (o *Ontology) Hierarchy(skipBlankParents bool) *domain.Hierarchy {
	return domain.BuildHierarchy(o.classes, func(class string) []string {
		parents := o.parents[class]
		if !skipBlankParents {
			return parents
		}
		kept := make([]string, 0, len(parents))
		for _, p := range parents {
			if !isBlankID(p) {
				kept = append(kept, p)
			}
		}
		return kept
	})
}

// ClassProperties returns the properties whose domain includes class
func (o *Ontology) ClassProperties(class string) []domain.Property {
	return o.index.PropertiesOf(class)
}

// Relationships returns the properties linking from to to
func (o *Ontology) Relationships(from, to string) []domain.Relationship {
	return o.index.Relationships(from, to)
}

// Samples returns the first limit triples in parse order
func (o *Ontology) Samples(ctx context.Context, limit int) ([]domain.Triple, error) {
	if limit <= 0 {
		return nil, nil
	}
	return o.store.Triples(ctx, limit)
}

// Report collects the exportable views of the ontology
func (o *Ontology) Report(ctx context.Context, sampleLimit int, skipBlankParents bool) (*domain.Report, error) {
	samples, err := o.Samples(ctx, sampleLimit)
	if err != nil {
		return nil, fmt.Errorf("sample triples: %w", err)
	}
	return &domain.Report{
		Summary:    o.Summary(),
		Hierarchy:  o.Hierarchy(skipBlankParents).Edges(),
		Properties: o.Properties(),
		Samples:    samples,
	}, nil
}
