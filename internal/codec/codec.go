package codec

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"ontoscope/internal/domain"
)

// RDF serialization formats accepted by the loader
const (
	FormatRDFXML   = "rdfxml"
	FormatTurtle   = "turtle"
	FormatNTriples = "ntriples"
)

// Importer interface for decoding RDF triples from a serialization
type Importer interface {
	Parse(r io.Reader) ([]domain.Triple, error)
	Format() string
}

// Exporter interface for writing an ontology report
type Exporter interface {
	Export(report *domain.Report, w io.Writer) error
	Format() string
}

// ImporterFor returns the importer for an RDF format name
func ImporterFor(format string) (Importer, error) {
	switch format {
	case FormatRDFXML:
		return NewRDFXMLCodec(), nil
	case FormatTurtle:
		return NewTurtleCodec(), nil
	case FormatNTriples:
		return NewNTriplesCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported RDF format %q", format)
	}
}

// ExporterFor returns the report exporter for a format name
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

var mediaTypes = map[string]string{
	"application/rdf+xml":   FormatRDFXML,
	"application/owl+xml":   FormatRDFXML,
	"application/xml":       FormatRDFXML,
	"text/xml":              FormatRDFXML,
	"text/turtle":           FormatTurtle,
	"application/x-turtle":  FormatTurtle,
	"application/n-triples": FormatNTriples,
}

var extensions = map[string]string{
	".owl": FormatRDFXML,
	".rdf": FormatRDFXML,
	".xml": FormatRDFXML,
	".ttl": FormatTurtle,
	".nt":  FormatNTriples,
}

// DetectFormat picks an RDF format from the response media type, then the
// URL file extension, then the first bytes of the document. Documents that
// look like XML are RDF/XML; anything else is treated as Turtle, which also
// accepts N-Triples.
func DetectFormat(contentType, rawURL string, head []byte) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if f, ok := mediaTypes[strings.ToLower(mt)]; ok {
				return f
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		if f, ok := extensions[strings.ToLower(path.Ext(u.Path))]; ok {
			return f
		}
	}

	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	if bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<rdf:RDF")) {
		return FormatRDFXML
	}
	return FormatTurtle
}
