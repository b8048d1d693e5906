package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/knakk/rdf"
)

const (
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xmlNS = "http://www.w3.org/XML/1998/namespace"
)

var (
	rdfTypeIRI       = mustIRI(rdfNS + "type")
	rdfFirstIRI      = mustIRI(rdfNS + "first")
	rdfRestIRI       = mustIRI(rdfNS + "rest")
	rdfNilIRI        = mustIRI(rdfNS + "nil")
	rdfSubjectIRI    = mustIRI(rdfNS + "subject")
	rdfPredicateIRI  = mustIRI(rdfNS + "predicate")
	rdfObjectIRI     = mustIRI(rdfNS + "object")
	rdfStatementIRI  = mustIRI(rdfNS + "Statement")
	rdfXMLLiteralIRI = mustIRI(rdfNS + "XMLLiteral")
)

// entityDecl matches a general entity in a DOCTYPE internal subset
var entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"']+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

func mustIRI(s string) rdf.IRI {
	iri, err := rdf.NewIRI(s)
	if err != nil {
		panic(err)
	}
	return iri
}

// xmlElement is one element of the parsed document with its inherited
// xml:base and xml:lang already applied.
type xmlElement struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*xmlElement
	text     strings.Builder
	inner    []byte
	start    int64
	base     string
	lang     string
}

func (e *xmlElement) is(space, local string) bool {
	return e.name.Space == space && e.name.Local == local
}

func (e *xmlElement) attr(space, local string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// rdfxmlDecoder reads a whole RDF/XML document and hands its triples out
// one at a time. It covers nested node elements, typed nodes,
// rdf:parseType Resource, Collection and Literal, rdf:li, property
// attributes, reification through rdf:ID, xml:base, xml:lang and entities
// declared in the DOCTYPE.
type rdfxmlDecoder struct {
	r       io.Reader
	base    string
	triples []rdf.Triple
	pos     int
	parsed  bool
	err     error
	bnodes  int
}

func newRDFXMLDecoder(r io.Reader) rdf.TripleDecoder {
	return &rdfxmlDecoder{r: r}
}

// SetOption supports rdf.Base, the IRI relative references resolve against
func (d *rdfxmlDecoder) SetOption(o rdf.ParseOption, v interface{}) error {
	if o != rdf.Base {
		return fmt.Errorf("RDF/XML decoder doesn't support option: %v", o)
	}
	iri, ok := v.(rdf.IRI)
	if !ok {
		return errors.New("ParseOption Base must be an IRI")
	}
	d.base = iri.String()
	return nil
}

// Decode returns the next triple in document order, or io.EOF
func (d *rdfxmlDecoder) Decode() (rdf.Triple, error) {
	if !d.parsed {
		d.parsed = true
		d.err = d.parse()
	}
	if d.err != nil {
		return rdf.Triple{}, d.err
	}
	if d.pos >= len(d.triples) {
		return rdf.Triple{}, io.EOF
	}
	t := d.triples[d.pos]
	d.pos++
	return t, nil
}

// DecodeAll returns every triple in the document
func (d *rdfxmlDecoder) DecodeAll() ([]rdf.Triple, error) {
	var all []rdf.Triple
	for {
		t, err := d.Decode()
		if errors.Is(err, io.EOF) {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, t)
	}
}

func (d *rdfxmlDecoder) parse() error {
	src, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	root, err := readXMLTree(src, d.base)
	if err != nil {
		return err
	}
	if root == nil {
		return errors.New("empty RDF/XML document")
	}

	if root.is(rdfNS, "RDF") {
		for _, child := range root.children {
			if _, err := d.nodeElement(child); err != nil {
				return err
			}
		}
		return nil
	}
	_, err = d.nodeElement(root)
	return err
}

// readXMLTree builds the element tree, expanding entities declared in the
// internal DTD subset.
func readXMLTree(src []byte, docBase string) (*xmlElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.Strict = true

	var (
		root  *xmlElement
		stack []*xmlElement
	)
	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.Directive:
			if ents := parseEntities(string(t)); len(ents) > 0 {
				if dec.Entity == nil {
					dec.Entity = make(map[string]string, len(ents))
				}
				for k, v := range ents {
					dec.Entity[k] = v
				}
			}

		case xml.StartElement:
			el := &xmlElement{name: t.Name, attrs: t.Attr, base: docBase}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				el.base, el.lang = parent.base, parent.lang
				parent.children = append(parent.children, el)
			} else if root == nil {
				root = el
			}
			if v, ok := el.attr(xmlNS, "base"); ok {
				el.base = stripFragment(resolveIRI(el.base, v))
			}
			if v, ok := el.attr(xmlNS, "lang"); ok {
				el.lang = v
			}
			el.start = dec.InputOffset()
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if el.start <= before {
				el.inner = src[el.start:before]
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	return root, nil
}

// parseEntities extracts general entities from a DOCTYPE directive. Values
// may reference entities declared before them.
func parseEntities(directive string) map[string]string {
	if !strings.HasPrefix(strings.TrimSpace(directive), "DOCTYPE") {
		return nil
	}
	ents := make(map[string]string)
	for _, m := range entityDecl.FindAllStringSubmatch(directive, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		for name, v := range ents {
			value = strings.ReplaceAll(value, "&"+name+";", v)
		}
		ents[m[1]] = value
	}
	return ents
}

func resolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if ref == "" {
		b.Fragment, b.RawFragment = "", ""
		return b.String()
	}
	return b.ResolveReference(r).String()
}

func stripFragment(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}

// asObject converts a node reference for use in object position. IRIs and
// blank nodes are valid in both.
func asObject(s rdf.Subject) rdf.Object {
	return s.(rdf.Object)
}

func (d *rdfxmlDecoder) emit(s rdf.Subject, p rdf.Predicate, o rdf.Object) {
	d.triples = append(d.triples, rdf.Triple{Subj: s, Pred: p, Obj: o})
}

func (d *rdfxmlDecoder) newBlank() rdf.Blank {
	d.bnodes++
	b, _ := rdf.NewBlank("genid" + strconv.Itoa(d.bnodes))
	return b
}

func (d *rdfxmlDecoder) iri(el *xmlElement, ref string) (rdf.IRI, error) {
	iri, err := rdf.NewIRI(resolveIRI(el.base, ref))
	if err != nil {
		return rdf.IRI{}, fmt.Errorf("<%s>: invalid IRI %q: %w", el.name.Local, ref, err)
	}
	return iri, nil
}

func (d *rdfxmlDecoder) nameIRI(el *xmlElement, n xml.Name) (rdf.IRI, error) {
	if n.Space == "" {
		return rdf.IRI{}, fmt.Errorf("<%s>: element or attribute has no namespace", n.Local)
	}
	iri, err := rdf.NewIRI(n.Space + n.Local)
	if err != nil {
		return rdf.IRI{}, fmt.Errorf("<%s>: %w", el.name.Local, err)
	}
	return iri, nil
}

func (d *rdfxmlDecoder) literal(el *xmlElement, text string) (rdf.Literal, error) {
	if dt, ok := el.attr(rdfNS, "datatype"); ok {
		iri, err := d.iri(el, dt)
		if err != nil {
			return rdf.Literal{}, err
		}
		return rdf.NewTypedLiteral(text, iri), nil
	}
	if el.lang != "" {
		lit, err := rdf.NewLangLiteral(text, el.lang)
		if err != nil {
			return rdf.Literal{}, fmt.Errorf("<%s>: %w", el.name.Local, err)
		}
		return lit, nil
	}
	return rdf.NewLiteral(text)
}

// nodeSubject names the resource a node element describes
func (d *rdfxmlDecoder) nodeSubject(el *xmlElement) (rdf.Subject, error) {
	if v, ok := el.attr(rdfNS, "about"); ok {
		return d.iri(el, v)
	}
	if v, ok := el.attr(rdfNS, "ID"); ok {
		return d.iri(el, "#"+v)
	}
	if v, ok := el.attr(rdfNS, "nodeID"); ok {
		b, err := rdf.NewBlank(v)
		if err != nil {
			return nil, fmt.Errorf("<%s>: %w", el.name.Local, err)
		}
		return b, nil
	}
	return d.newBlank(), nil
}

func (d *rdfxmlDecoder) nodeElement(el *xmlElement) (rdf.Subject, error) {
	subj, err := d.nodeSubject(el)
	if err != nil {
		return nil, err
	}
	return subj, d.nodeBody(el, subj)
}

// isSyntaxAttr reports attributes that never become property triples
func isSyntaxAttr(a xml.Attr) bool {
	switch a.Name.Space {
	case xmlNS, "xmlns":
		return true
	case "":
		return a.Name.Local == "xmlns"
	case rdfNS:
		switch a.Name.Local {
		case "about", "ID", "nodeID", "resource", "datatype", "parseType", "aboutEach", "aboutEachPrefix", "bagID":
			return true
		}
	}
	return false
}

// propertyAttrs emits one triple per property attribute on el
func (d *rdfxmlDecoder) propertyAttrs(el *xmlElement, subj rdf.Subject) error {
	for _, a := range el.attrs {
		if isSyntaxAttr(a) || a.Name.Space == "" {
			continue
		}
		pred, err := d.nameIRI(el, a.Name)
		if err != nil {
			return err
		}
		if pred == rdfTypeIRI {
			obj, err := d.iri(el, a.Value)
			if err != nil {
				return err
			}
			d.emit(subj, pred, obj)
			continue
		}
		var obj rdf.Literal
		if el.lang != "" {
			if obj, err = rdf.NewLangLiteral(a.Value, el.lang); err != nil {
				return fmt.Errorf("<%s>: %w", el.name.Local, err)
			}
		} else if obj, err = rdf.NewLiteral(a.Value); err != nil {
			return err
		}
		d.emit(subj, pred, obj)
	}
	return nil
}

func (d *rdfxmlDecoder) nodeBody(el *xmlElement, subj rdf.Subject) error {
	if !el.is(rdfNS, "Description") {
		class, err := d.nameIRI(el, el.name)
		if err != nil {
			return err
		}
		d.emit(subj, rdfTypeIRI, class)
	}
	if err := d.propertyAttrs(el, subj); err != nil {
		return err
	}

	li := 0
	for _, prop := range el.children {
		pred, err := d.nameIRI(prop, prop.name)
		if err != nil {
			return err
		}
		if prop.is(rdfNS, "li") {
			li++
			pred = mustIRI(rdfNS + "_" + strconv.Itoa(li))
		}
		if err := d.propertyElement(prop, subj, pred); err != nil {
			return err
		}
	}
	return nil
}

func (d *rdfxmlDecoder) propertyElement(el *xmlElement, subj rdf.Subject, pred rdf.IRI) error {
	var stmt rdf.Subject
	if id, ok := el.attr(rdfNS, "ID"); ok {
		iri, err := d.iri(el, "#"+id)
		if err != nil {
			return err
		}
		stmt = iri
	}
	reify := func(obj rdf.Object) {
		d.emit(subj, pred, obj)
		if stmt != nil {
			d.emit(stmt, rdfTypeIRI, rdfStatementIRI)
			d.emit(stmt, rdfSubjectIRI, asObject(subj))
			d.emit(stmt, rdfPredicateIRI, pred)
			d.emit(stmt, rdfObjectIRI, obj)
		}
	}

	parseType, hasParseType := el.attr(rdfNS, "parseType")
	switch {
	case hasParseType && parseType == "Resource":
		obj := d.newBlank()
		reify(obj)
		li := 0
		for _, prop := range el.children {
			p, err := d.nameIRI(prop, prop.name)
			if err != nil {
				return err
			}
			if prop.is(rdfNS, "li") {
				li++
				p = mustIRI(rdfNS + "_" + strconv.Itoa(li))
			}
			if err := d.propertyElement(prop, obj, p); err != nil {
				return err
			}
		}
		return nil

	case hasParseType && parseType == "Collection":
		if len(el.children) == 0 {
			reify(rdfNilIRI)
			return nil
		}
		cells := make([]rdf.Blank, len(el.children))
		for i := range cells {
			cells[i] = d.newBlank()
		}
		reify(cells[0])
		for i, member := range el.children {
			item, err := d.nodeElement(member)
			if err != nil {
				return err
			}
			d.emit(cells[i], rdfFirstIRI, asObject(item))
			if i+1 < len(cells) {
				d.emit(cells[i], rdfRestIRI, cells[i+1])
			} else {
				d.emit(cells[i], rdfRestIRI, rdfNilIRI)
			}
		}
		return nil

	case hasParseType:
		// Literal, and any unknown parse type, keeps the markup verbatim
		reify(rdf.NewTypedLiteral(string(el.inner), rdfXMLLiteralIRI))
		return nil
	}

	if len(el.children) > 1 {
		return fmt.Errorf("<%s>: property element has %d node elements, want one", el.name.Local, len(el.children))
	}
	if len(el.children) == 1 {
		node := el.children[0]
		obj, err := d.nodeSubject(node)
		if err != nil {
			return err
		}
		reify(asObject(obj))
		return d.nodeBody(node, obj)
	}

	// Empty property element: a resource reference, a blank node carrying
	// property attributes, or a plain literal.
	hasPropAttrs := false
	for _, a := range el.attrs {
		if !isSyntaxAttr(a) && a.Name.Space != "" {
			hasPropAttrs = true
			break
		}
	}
	var obj rdf.Subject
	if v, ok := el.attr(rdfNS, "resource"); ok {
		iri, err := d.iri(el, v)
		if err != nil {
			return err
		}
		obj = iri
	} else if v, ok := el.attr(rdfNS, "nodeID"); ok {
		b, err := rdf.NewBlank(v)
		if err != nil {
			return fmt.Errorf("<%s>: %w", el.name.Local, err)
		}
		obj = b
	} else if hasPropAttrs {
		obj = d.newBlank()
	}
	if obj == nil {
		lit, err := d.literal(el, el.text.String())
		if err != nil {
			return err
		}
		reify(lit)
		return nil
	}

	reify(asObject(obj))
	return d.propertyAttrs(el, obj)
}
