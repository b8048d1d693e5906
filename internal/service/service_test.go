package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ontoscope/internal/config"
	"ontoscope/internal/domain"
	"ontoscope/internal/fetch"
	"ontoscope/internal/metrics"
	"ontoscope/internal/render"
	"ontoscope/internal/sparql"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zooTurtle = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix zoo: <http://example.org/zoo#> .

zoo:Animal a owl:Class .
zoo:Dog a owl:Class ; rdfs:subClassOf zoo:Animal .
zoo:Cat a owl:Class ; rdfs:subClassOf zoo:Animal .
zoo:Person a owl:Class .
zoo:owns a rdf:Property ; rdfs:domain zoo:Person ; rdfs:range zoo:Dog, zoo:Cat .
zoo:name a rdf:Property ; rdfs:domain zoo:Person .
zoo:chases a owl:ObjectProperty ; rdfs:domain zoo:Dog ; rdfs:range zoo:Cat .
`

const zoo = "http://example.org/zoo#"

// petsOWL is RDF/XML in the shape editors emit: DOCTYPE entities, an
// anonymous restriction superclass and a union collection.
const petsOWL = `<?xml version="1.0"?>
<!DOCTYPE rdf:RDF [
  <!ENTITY zoo "http://example.org/zoo#" >
]>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xml:base="http://example.org/zoo">
  <owl:Class rdf:about="&zoo;Animal"/>
  <owl:Class rdf:about="#Pet">
    <rdfs:subClassOf rdf:resource="#Animal"/>
    <rdfs:subClassOf>
      <owl:Restriction>
        <owl:onProperty rdf:resource="#owner"/>
        <owl:someValuesFrom rdf:resource="#Person"/>
      </owl:Restriction>
    </rdfs:subClassOf>
    <owl:equivalentClass>
      <owl:Class>
        <owl:unionOf rdf:parseType="Collection">
          <owl:Class rdf:about="#Dog"/>
          <owl:Class rdf:about="#Cat"/>
        </owl:unionOf>
      </owl:Class>
    </owl:equivalentClass>
  </owl:Class>
</rdf:RDF>
`

// manyTurtle has 25 triples zoo:s00 .. zoo:s24 in document order
func manyTurtle() string {
	doc := "@prefix zoo: <http://example.org/zoo#> .\n"
	for i := 0; i < 25; i++ {
		doc += fmt.Sprintf("zoo:s%02d zoo:p \"v%02d\" .\n", i, i)
	}
	return doc
}

func zooServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/zoo.ttl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		w.Write([]byte(zooTurtle))
	})
	mux.HandleFunc("/pets.owl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rdf+xml")
		w.Write([]byte(petsOWL))
	})
	mux.HandleFunc("/many.ttl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		w.Write([]byte(manyTurtle()))
	})
	mux.HandleFunc("/broken.ttl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		w.Write([]byte("<http://x/a> <http://x/b> .\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testExplorer(m *metrics.Metrics, opts Options) *Explorer {
	f := fetch.New(fetch.Options{Timeout: 5 * time.Second, MaxContentSize: 1 << 20})
	r := render.New(render.Options{Height: "600px", Width: "100%", ScriptURL: "https://cdn.example/vis.js"})
	if opts.SampleLimit == 0 {
		opts.SampleLimit = 20
	}
	if opts.DefaultQuery == "" {
		opts.DefaultQuery = "SELECT ?s ?p ?o WHERE {?s ?p ?o} LIMIT 10"
	}
	return NewExplorer(f, r, m, opts)
}

func propertyIRIs(props []domain.Property) []string {
	var iris []string
	for _, p := range props {
		iris = append(iris, p.IRI)
	}
	return iris
}

// ============================================================================
// Load
// ============================================================================

func TestLoad(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	ont, err := ex.Load(context.Background(), srv.URL+"/zoo.ttl")
	require.NoError(t, err)
	defer ont.Close()

	assert.Equal(t, 15, ont.TripleCount())
	assert.Equal(t, []string{zoo + "Animal", zoo + "Cat", zoo + "Dog", zoo + "Person"}, ont.Classes())
	assert.Equal(t, []string{zoo + "name", zoo + "owns"}, propertyIRIs(ont.Properties()))

	s := ont.Summary()
	assert.Equal(t, 4, s.ClassCount)
	assert.Equal(t, 2, s.PropertyCount)
	assert.Equal(t, 15, s.TripleCount)
}

func TestLoadExtraPropertyTypes(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{PropertyTypes: []string{domain.OWLObjectProperty}})

	ont, err := ex.Load(context.Background(), srv.URL+"/zoo.ttl")
	require.NoError(t, err)
	defer ont.Close()

	assert.Equal(t, []string{zoo + "chases", zoo + "name", zoo + "owns"}, propertyIRIs(ont.Properties()))
	rels := ont.Relationships(zoo+"Dog", zoo+"Cat")
	require.Len(t, rels, 1)
	assert.Equal(t, zoo+"chases", rels[0].Property)
}

func TestLoadErrors(t *testing.T) {
	srv := zooServer(t)
	m := metrics.New()
	ex := testExplorer(m, Options{})

	tests := []struct {
		name string
		url  string
	}{
		{"not found", srv.URL + "/missing.ttl"},
		{"undecodable", srv.URL + "/broken.ttl"},
		{"bad scheme", "ftp://example.org/zoo.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ex.Load(context.Background(), tt.url)
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.url, le.URL)
		})
	}

	n, err := testutil.GatherAndCount(m.Registry(), "ontoscope_ontology_loads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "every failure shares the error series")
}

// ============================================================================
// Hierarchy
// ============================================================================

func TestHierarchy(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	ont, err := ex.Load(context.Background(), srv.URL+"/zoo.ttl")
	require.NoError(t, err)
	defer ont.Close()

	h := ont.Hierarchy(false)
	assert.Equal(t, 3, h.NodeCount())
	assert.Equal(t, 2, h.EdgeCount())
	assert.True(t, h.HasEdge(zoo+"Animal", zoo+"Dog"))
	assert.True(t, h.HasEdge(zoo+"Animal", zoo+"Cat"))
	assert.False(t, h.HasNode(zoo+"Person"), "isolated classes are not drawn")
	assert.Equal(t, 2, h.SubclassCount(zoo+"Animal"))
}

func TestLoadRDFXMLRestrictions(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	ont, err := ex.Load(context.Background(), srv.URL+"/pets.owl")
	require.NoError(t, err)
	defer ont.Close()

	assert.Equal(t, 16, ont.TripleCount())
	classes := ont.Classes()
	require.Len(t, classes, 5)
	assert.True(t, isBlankID(classes[0]), "the union class is anonymous")
	assert.Equal(t, []string{zoo + "Animal", zoo + "Cat", zoo + "Dog", zoo + "Pet"}, classes[1:])

	h := ont.Hierarchy(false)
	assert.Equal(t, 3, h.NodeCount())
	assert.Equal(t, 2, h.EdgeCount())
	assert.True(t, h.HasEdge(zoo+"Animal", zoo+"Pet"))

	var restriction string
	for _, parent := range h.Predecessors(zoo + "Pet") {
		if isBlankID(parent) {
			restriction = parent
		}
	}
	require.NotEmpty(t, restriction, "restriction superclass is drawn")
	assert.Equal(t, 1, h.SubclassCount(restriction))

	skipped := ont.Hierarchy(true)
	assert.Equal(t, 1, skipped.EdgeCount())
	assert.False(t, skipped.HasNode(restriction))
	assert.True(t, skipped.HasEdge(zoo+"Animal", zoo+"Pet"))
}

func TestHierarchySkipBlankParents(t *testing.T) {
	ont := &Ontology{
		classes: []string{"http://x/A", "http://x/B"},
		parents: map[string][]string{
			"http://x/A": {"_:r1"},
			"http://x/B": {"http://x/A", "_:r2"},
		},
	}

	assert.Equal(t, 3, ont.Hierarchy(false).EdgeCount())

	h := ont.Hierarchy(true)
	assert.Equal(t, 1, h.EdgeCount())
	assert.True(t, h.HasEdge("http://x/A", "http://x/B"))
	assert.False(t, h.HasNode("_:r1"))
}

// ============================================================================
// Explore
// ============================================================================

func TestExploreDefaults(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	resp, err := ex.Explore(context.Background(), Request{URL: srv.URL + "/zoo.ttl"})
	require.NoError(t, err)

	require.True(t, resp.Loaded)
	assert.Nil(t, resp.LoadErr)
	assert.Equal(t, zoo+"Animal", resp.SelectedClass)
	assert.Equal(t, zoo+"Animal", resp.FromClass)
	assert.Equal(t, zoo+"Animal", resp.ToClass)
	assert.Empty(t, resp.ClassProperties)
	assert.Empty(t, resp.Relationships)
	assert.Len(t, resp.SampleTriples, 15)
	assert.Equal(t, "SELECT ?s ?p ?o WHERE {?s ?p ?o} LIMIT 10", resp.Query)
	assert.Nil(t, resp.QueryResult)
	assert.Nil(t, resp.QueryErr)

	require.NotNil(t, resp.Graph)
	assert.Len(t, resp.Graph.Nodes, 3)
	assert.Contains(t, resp.GraphHTML, "vis.DataSet")
	assert.Contains(t, resp.GraphHTML, "Subclasses: 2")
}

func TestExploreSampleLimitDefault(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{SampleLimit: config.DefaultConfig().Explorer.SampleLimit})

	resp, err := ex.Explore(context.Background(), Request{URL: srv.URL + "/many.ttl"})
	require.NoError(t, err)
	require.True(t, resp.Loaded)

	require.Len(t, resp.SampleTriples, 20)
	for i, tr := range resp.SampleTriples {
		assert.Equal(t, fmt.Sprintf("%ss%02d", zoo, i), tr.Subject.Value)
		assert.Equal(t, domain.NewLiteral(fmt.Sprintf("v%02d", i)), tr.Object)
	}
}

func TestExploreSelections(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	resp, err := ex.Explore(context.Background(), Request{
		URL:           srv.URL + "/zoo.ttl",
		SelectedClass: zoo + "Person",
		FromClass:     zoo + "Person",
		ToClass:       zoo + "Dog",
		SampleLimit:   5,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{zoo + "name", zoo + "owns"}, propertyIRIs(resp.ClassProperties))
	require.Len(t, resp.Relationships, 1)
	assert.Equal(t, domain.Relationship{From: zoo + "Person", Property: zoo + "owns", To: zoo + "Dog"}, resp.Relationships[0])

	require.Len(t, resp.SampleTriples, 5)
	first := resp.SampleTriples[0]
	assert.Equal(t, zoo+"Animal", first.Subject.Value)
	assert.Equal(t, domain.RDFType, first.Predicate.Value)
	assert.Equal(t, domain.OWLClass, first.Object.Value)
}

func TestExploreQuery(t *testing.T) {
	srv := zooServer(t)
	m := metrics.New()
	ex := testExplorer(m, Options{})

	resp, err := ex.Explore(context.Background(), Request{
		URL:      srv.URL + "/zoo.ttl",
		Query:    "PREFIX zoo: <http://example.org/zoo#> SELECT ?c WHERE { ?c rdfs:subClassOf zoo:Animal } ORDER BY ?c",
		RunQuery: true,
	})
	require.NoError(t, err)
	require.Nil(t, resp.QueryErr)
	require.NotNil(t, resp.QueryResult)

	assert.Equal(t, []string{"c"}, resp.QueryResult.Vars)
	require.Len(t, resp.QueryResult.Rows, 2)
	assert.Equal(t, zoo+"Cat", resp.QueryResult.Rows[0][0].Value)
	assert.Equal(t, zoo+"Dog", resp.QueryResult.Rows[1][0].Value)

	n, err := testutil.GatherAndCount(m.Registry(), "ontoscope_sparql_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExploreQueryError(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	resp, err := ex.Explore(context.Background(), Request{
		URL:      srv.URL + "/zoo.ttl",
		Query:    "SELECT ?s WHERE { ?s ?p }",
		RunQuery: true,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.QueryErr)
	assert.Nil(t, resp.QueryResult)
	var se *sparql.SyntaxError
	assert.True(t, errors.As(resp.QueryErr, &se))

	// the rest of the exploration is intact
	assert.True(t, resp.Loaded)
	assert.Equal(t, 4, resp.Summary.ClassCount)
	assert.NotEmpty(t, resp.SampleTriples)
}

func TestExploreUnsupportedQuery(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	resp, err := ex.Explore(context.Background(), Request{
		URL:      srv.URL + "/zoo.ttl",
		Query:    "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }",
		RunQuery: true,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.QueryErr)
	var ue *sparql.UnsupportedError
	assert.True(t, errors.As(resp.QueryErr, &ue))
}

func TestExploreLoadError(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	resp, err := ex.Explore(context.Background(), Request{URL: srv.URL + "/missing.ttl", RunQuery: true})
	require.NoError(t, err)

	assert.False(t, resp.Loaded)
	require.NotNil(t, resp.LoadErr)
	assert.Nil(t, resp.Summary)
	assert.Empty(t, resp.Classes)
	assert.Empty(t, resp.GraphHTML)
	assert.Nil(t, resp.QueryResult)
	assert.Nil(t, resp.QueryErr)
}

func TestExploreEmptyURL(t *testing.T) {
	ex := testExplorer(nil, Options{})

	resp, err := ex.Explore(context.Background(), Request{})
	require.NoError(t, err)
	assert.False(t, resp.Loaded)
	assert.Nil(t, resp.LoadErr)
	assert.Equal(t, ex.Options().DefaultQuery, resp.Query)
}

// ============================================================================
// Export
// ============================================================================

func TestExport(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{SampleLimit: 3})

	ont, err := ex.Load(context.Background(), srv.URL+"/zoo.ttl")
	require.NoError(t, err)
	defer ont.Close()

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, ex.Export(context.Background(), ont, format, &buf))
			assert.Contains(t, buf.String(), zoo+"Dog")
			assert.Contains(t, buf.String(), zoo+"owns")
		})
	}

	var buf bytes.Buffer
	assert.Error(t, ex.Export(context.Background(), ont, "csv", &buf))
}

func TestReport(t *testing.T) {
	srv := zooServer(t)
	ex := testExplorer(nil, Options{})

	ont, err := ex.Load(context.Background(), srv.URL+"/zoo.ttl")
	require.NoError(t, err)
	defer ont.Close()

	report, err := ont.Report(context.Background(), 4, false)
	require.NoError(t, err)
	assert.Len(t, report.Samples, 4)
	assert.Len(t, report.Hierarchy, 2)
	assert.Len(t, report.Properties, 2)
	assert.Equal(t, 4, report.Summary.ClassCount)
}
