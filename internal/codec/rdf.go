package codec

import (
	"errors"
	"fmt"
	"io"

	"ontoscope/internal/domain"

	"github.com/knakk/rdf"
)

// RDFCodec decodes one RDF serialization into domain triples
type RDFCodec struct {
	newDecoder func(io.Reader) rdf.TripleDecoder
	name       string
}

func knakkDecoder(f rdf.Format) func(io.Reader) rdf.TripleDecoder {
	return func(r io.Reader) rdf.TripleDecoder {
		return rdf.NewTripleDecoder(r, f)
	}
}

// NewRDFXMLCodec creates a codec for RDF/XML (including OWL files)
func NewRDFXMLCodec() *RDFCodec {
	return &RDFCodec{newDecoder: newRDFXMLDecoder, name: FormatRDFXML}
}

// NewTurtleCodec creates a codec for Turtle
func NewTurtleCodec() *RDFCodec {
	return &RDFCodec{newDecoder: knakkDecoder(rdf.Turtle), name: FormatTurtle}
}

// NewNTriplesCodec creates a codec for N-Triples
func NewNTriplesCodec() *RDFCodec {
	return &RDFCodec{newDecoder: knakkDecoder(rdf.NTriples), name: FormatNTriples}
}

// Format returns the codec format identifier
func (c *RDFCodec) Format() string {
	return c.name
}

// Parse decodes every triple in r, in document order
func (c *RDFCodec) Parse(r io.Reader) ([]domain.Triple, error) {
	dec := c.newDecoder(r)

	var triples []domain.Triple
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s at triple %d: %w", c.name, len(triples)+1, err)
		}

		triple := domain.NewTriple(convertTerm(t.Subj), convertTerm(t.Pred), convertTerm(t.Obj))
		if err := triple.Validate(); err != nil {
			return nil, fmt.Errorf("failed to parse %s at triple %d: %w", c.name, len(triples)+1, err)
		}
		triples = append(triples, triple)
	}

	return triples, nil
}

func convertTerm(t rdf.Term) domain.Term {
	if t == nil {
		return domain.Term{}
	}
	switch t.Type() {
	case rdf.TermIRI:
		return domain.NewIRI(t.String())
	case rdf.TermBlank:
		return domain.NewBlank(t.String())
	case rdf.TermLiteral:
		lit, ok := t.(rdf.Literal)
		if !ok {
			return domain.NewLiteral(t.String())
		}
		if lang := lit.Lang(); lang != "" {
			return domain.NewLangLiteral(lit.String(), lang)
		}
		return domain.NewTypedLiteral(lit.String(), lit.DataType.String())
	default:
		return domain.Term{}
	}
}
