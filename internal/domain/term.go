package domain

import (
	"fmt"
	"strings"
)

// TermKind identifies the kind of an RDF term
type TermKind string

const (
	TermIRI     TermKind = "iri"
	TermBlank   TermKind = "bnode"
	TermLiteral TermKind = "literal"
)

// Term is a single RDF node: an IRI, a blank node or a literal
type Term struct {
	Kind     TermKind `json:"kind" yaml:"kind"`
	Value    string   `json:"value" yaml:"value"`
	Lang     string   `json:"lang,omitempty" yaml:"lang,omitempty"`
	Datatype string   `json:"datatype,omitempty" yaml:"datatype,omitempty"`
}

// NewIRI creates an IRI term
func NewIRI(iri string) Term {
	return Term{Kind: TermIRI, Value: iri}
}

// NewBlank creates a blank node term from its label (without the "_:" prefix)
func NewBlank(id string) Term {
	return Term{Kind: TermBlank, Value: strings.TrimPrefix(id, "_:")}
}

// NewLiteral creates a plain literal
func NewLiteral(lexical string) Term {
	return Term{Kind: TermLiteral, Value: lexical}
}

// NewLangLiteral creates a language-tagged literal
func NewLangLiteral(lexical, lang string) Term {
	return Term{Kind: TermLiteral, Value: lexical, Lang: strings.ToLower(lang)}
}

// NewTypedLiteral creates a literal with an explicit datatype.
// xsd:string is folded into a plain literal.
func NewTypedLiteral(lexical, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: TermLiteral, Value: lexical, Datatype: datatype}
}

// IsZero reports whether the term is unset (an unbound query variable)
func (t Term) IsZero() bool {
	return t.Kind == ""
}

// IsIRI reports whether the term is an IRI
func (t Term) IsIRI() bool { return t.Kind == TermIRI }

// IsBlank reports whether the term is a blank node
func (t Term) IsBlank() bool { return t.Kind == TermBlank }

// IsLiteral reports whether the term is a literal
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

// String returns the display form: the IRI, the blank node label, or the
// lexical value of a literal.
func (t Term) String() string {
	return t.Value
}

// Key returns the N-Triples encoding of the term. Two terms are the same RDF
// term exactly when their keys are equal.
func (t Term) Key() string {
	switch t.Kind {
	case TermIRI:
		return "<" + t.Value + ">"
	case TermBlank:
		return "_:" + t.Value
	case TermLiteral:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

// ParseKey decodes a term previously produced by Key
func ParseKey(key string) (Term, error) {
	switch {
	case key == "":
		return Term{}, nil
	case strings.HasPrefix(key, "<") && strings.HasSuffix(key, ">"):
		return NewIRI(key[1 : len(key)-1]), nil
	case strings.HasPrefix(key, "_:"):
		return NewBlank(key[2:]), nil
	case strings.HasPrefix(key, `"`):
		end := strings.LastIndex(key, `"`)
		if end == 0 {
			return Term{}, fmt.Errorf("unterminated literal %q", key)
		}
		lexical := unescapeLiteral(key[1:end])
		rest := key[end+1:]
		switch {
		case rest == "":
			return NewLiteral(lexical), nil
		case strings.HasPrefix(rest, "@"):
			return NewLangLiteral(lexical, rest[1:]), nil
		case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
			return NewTypedLiteral(lexical, rest[3:len(rest)-1]), nil
		}
	}
	return Term{}, fmt.Errorf("invalid term encoding %q", key)
}

// EffectiveDatatype returns the datatype IRI of a literal, including the
// implicit xsd:string and rdf:langString.
func (t Term) EffectiveDatatype() string {
	if t.Kind != TermLiteral {
		return ""
	}
	if t.Lang != "" {
		return RDFLangString
	}
	if t.Datatype == "" {
		return XSDString
	}
	return t.Datatype
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
var literalUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\r`, "\r", `\t`, "\t")

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

func unescapeLiteral(s string) string {
	return literalUnescaper.Replace(s)
}
