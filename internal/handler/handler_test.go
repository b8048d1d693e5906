package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ontoscope/internal/domain"
	"ontoscope/internal/fetch"
	"ontoscope/internal/render"
	"ontoscope/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
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
`

const zoo = "http://example.org/zoo#"

// testServer starts an ontology host and an explorer whose default
// ontology is the zoo
func testServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	onto := http.NewServeMux()
	onto.HandleFunc("/zoo.ttl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		w.Write([]byte(zooTurtle))
	})
	ontoSrv := httptest.NewServer(onto)
	t.Cleanup(ontoSrv.Close)

	ex := service.NewExplorer(
		fetch.New(fetch.Options{Timeout: 5 * time.Second, MaxContentSize: 1 << 20}),
		render.New(render.Options{Height: "600px", Width: "100%", ScriptURL: "https://cdn.example/vis.js"}),
		nil,
		service.Options{
			DefaultQuery: "SELECT ?s ?p ?o WHERE {?s ?p ?o} LIMIT 10",
			SampleLimit:  20,
		},
	)
	zooURL := ontoSrv.URL + "/zoo.ttl"

	mux := http.NewServeMux()
	NewExplorerHandler(ex, zooURL).Register(mux)
	srv := httptest.NewServer(Chain(mux, Recover, CORS(nil), Logger(nil)))
	t.Cleanup(srv.Close)

	return srv, ontoSrv.URL
}

func parsePage(t *testing.T, resp *http.Response) *html.Node {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	doc, err := html.Parse(resp.Body)
	require.NoError(t, err)
	return doc
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func byID(doc *html.Node, id string) *html.Node {
	found := findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func byTag(doc *html.Node, tag string) []*html.Node {
	return findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
}

func text(n *html.Node) string {
	var b strings.Builder
	for _, t := range findAll(n, func(n *html.Node) bool { return n.Type == html.TextNode }) {
		b.WriteString(t.Data)
	}
	return strings.TrimSpace(b.String())
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// ============================================================================
// Page
// ============================================================================

func TestPageDefaultOntology(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	doc := parsePage(t, resp)

	require.NotNil(t, byID(doc, "loaded"))
	assert.Equal(t, "Ontology loaded successfully!", text(byID(doc, "loaded")))
	summary := text(byID(doc, "summary"))
	assert.Contains(t, summary, "Total Classes: 4")
	assert.Contains(t, summary, "Total Properties: 2")

	iframes := byTag(doc, "iframe")
	require.Len(t, iframes, 1)
	srcdoc := attr(iframes[0], "srcdoc")
	assert.Contains(t, srcdoc, "new vis.DataSet(")
	assert.Contains(t, srcdoc, "Subclasses: 2")

	options := byTag(byID(doc, "class"), "option")
	require.Len(t, options, 4)
	assert.Equal(t, zoo+"Animal", attr(options[0], "value"))
	assert.Contains(t, text(byID(doc, "class-properties")), "No properties found for this class.")
	assert.Contains(t, text(byID(doc, "relationships")), "No direct relationship found.")

	samples := byTag(byID(doc, "samples"), "li")
	assert.Len(t, samples, 12)
	assert.Equal(t, zoo+"Animal -- "+domain.RDFType+" --> "+domain.OWLClass, text(samples[0]))

	assert.Equal(t, "SELECT ?s ?p ?o WHERE {?s ?p ?o} LIMIT 10", text(byID(doc, "query")))
	assert.Nil(t, byID(doc, "query-result"))
}

func TestPageSelections(t *testing.T) {
	srv, _ := testServer(t)

	form := url.Values{
		"class": {zoo + "Person"},
		"from":  {zoo + "Person"},
		"to":    {zoo + "Cat"},
	}
	resp, err := http.Get(srv.URL + "/?" + form.Encode())
	require.NoError(t, err)
	doc := parsePage(t, resp)

	props := byTag(byID(doc, "class-properties"), "li")
	require.Len(t, props, 2)
	assert.Equal(t, "Property: "+zoo+"name | Domain: ["+zoo+"Person] | Range: []", text(props[0]))
	assert.Equal(t, "Property: "+zoo+"owns | Domain: ["+zoo+"Person] | Range: ["+zoo+"Dog, "+zoo+"Cat]", text(props[1]))

	selected := findAll(byID(doc, "class"), func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "option" && hasAttr(n, "selected")
	})
	require.Len(t, selected, 1)
	assert.Equal(t, zoo+"Person", attr(selected[0], "value"))

	assert.Contains(t, text(byID(doc, "relationships")),
		"Relationship found: "+zoo+"Person -- "+zoo+"owns --> "+zoo+"Cat")
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func TestPageLoadError(t *testing.T) {
	srv, ontoURL := testServer(t)

	resp, err := http.PostForm(srv.URL+"/", url.Values{"url": {ontoURL + "/missing.ttl"}})
	require.NoError(t, err)
	doc := parsePage(t, resp)

	banner := byID(doc, "load-error")
	require.NotNil(t, banner)
	assert.True(t, strings.HasPrefix(text(banner), "Failed to load ontology: "))
	assert.Contains(t, text(banner), "404")

	for _, id := range []string{"loaded", "summary", "hierarchy", "class-properties", "relationships", "samples", "sparql"} {
		assert.Nil(t, byID(doc, id), "section %s should not render", id)
	}
}

func TestPageQuery(t *testing.T) {
	srv, ontoURL := testServer(t)

	resp, err := http.PostForm(srv.URL+"/", url.Values{
		"url":   {ontoURL + "/zoo.ttl"},
		"query": {"SELECT ?c WHERE { ?c rdfs:subClassOf ?p } ORDER BY ?c"},
		"run":   {"1"},
	})
	require.NoError(t, err)
	doc := parsePage(t, resp)

	table := byID(doc, "query-result")
	require.NotNil(t, table)
	assert.Equal(t, "?c", text(byTag(table, "th")[0]))
	cells := byTag(table, "td")
	require.Len(t, cells, 2)
	assert.Equal(t, zoo+"Cat", text(cells[0]))
	assert.Equal(t, zoo+"Dog", text(cells[1]))
}

func TestPageAskQuery(t *testing.T) {
	srv, ontoURL := testServer(t)

	resp, err := http.PostForm(srv.URL+"/", url.Values{
		"url":   {ontoURL + "/zoo.ttl"},
		"query": {"ASK { ?c a owl:Class }"},
		"run":   {"1"},
	})
	require.NoError(t, err)
	doc := parsePage(t, resp)

	require.NotNil(t, byID(doc, "query-result"))
	assert.Equal(t, "true", text(byID(doc, "query-result")))
}

func TestPageQueryError(t *testing.T) {
	srv, ontoURL := testServer(t)

	resp, err := http.PostForm(srv.URL+"/", url.Values{
		"url":   {ontoURL + "/zoo.ttl"},
		"query": {"SELECT ?s WHERE { ?s ?p }"},
		"run":   {"1"},
	})
	require.NoError(t, err)
	doc := parsePage(t, resp)

	banner := byID(doc, "query-error")
	require.NotNil(t, banner)
	assert.True(t, strings.HasPrefix(text(banner), "SPARQL Query Error: "))
	assert.Nil(t, byID(doc, "query-result"))

	// the rest of the page is intact
	assert.NotNil(t, byID(doc, "loaded"))
	assert.Contains(t, text(byID(doc, "summary")), "Total Classes: 4")
	assert.Len(t, byTag(byID(doc, "samples"), "li"), 12)
	assert.Equal(t, "SELECT ?s WHERE { ?s ?p }", text(byID(doc, "query")))
}

func TestPageEmptyURL(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.PostForm(srv.URL+"/", url.Values{"url": {""}})
	require.NoError(t, err)
	doc := parsePage(t, resp)

	assert.NotNil(t, byID(doc, "url"))
	assert.Nil(t, byID(doc, "loaded"))
	assert.Nil(t, byID(doc, "load-error"))
}

func TestPageInvalidForm(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/", "application/x-www-form-urlencoded", strings.NewReader("url=%zz"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "Invalid form")
	assert.NotContains(t, body.String(), `"error"`)
}

// ============================================================================
// API
// ============================================================================

func TestAPISummary(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/summary")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary domain.Summary
	decode(t, resp, &summary)
	assert.Equal(t, 4, summary.ClassCount)
	assert.Equal(t, 2, summary.PropertyCount)
	assert.Equal(t, 12, summary.TripleCount)
}

func TestAPILoadError(t *testing.T) {
	srv, ontoURL := testServer(t)

	resp, err := http.Get(srv.URL + "/api/summary?url=" + url.QueryEscape(ontoURL+"/missing.ttl"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "Failed to load ontology", body.Error)
	assert.Contains(t, body.Details, "404")
}

func TestAPIHierarchy(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/hierarchy")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var graph domain.Graph
	decode(t, resp, &graph)
	assert.Len(t, graph.Nodes, 3)
	assert.Len(t, graph.Edges, 2)
	for _, e := range graph.Edges {
		assert.Equal(t, zoo+"Animal", e.From)
	}
}

func TestAPIGraphHTML(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/graph.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "https://cdn.example/vis.js")
}

func TestAPIPropertiesAndRelationships(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/properties?class=" + url.QueryEscape(zoo+"Person"))
	require.NoError(t, err)
	var props struct {
		Class      string            `json:"class"`
		Properties []domain.Property `json:"properties"`
	}
	decode(t, resp, &props)
	assert.Equal(t, zoo+"Person", props.Class)
	assert.Len(t, props.Properties, 2)

	q := url.Values{"from": {zoo + "Person"}, "to": {zoo + "Dog"}}
	resp, err = http.Get(srv.URL + "/api/relationships?" + q.Encode())
	require.NoError(t, err)
	var rels struct {
		Relationships []domain.Relationship `json:"relationships"`
	}
	decode(t, resp, &rels)
	require.Len(t, rels.Relationships, 1)
	assert.Equal(t, zoo+"owns", rels.Relationships[0].Property)

	resp, err = http.Get(srv.URL + "/api/relationships")
	require.NoError(t, err)
	var none struct {
		From          string                `json:"from"`
		Relationships []domain.Relationship `json:"relationships"`
	}
	decode(t, resp, &none)
	assert.Equal(t, zoo+"Animal", none.From)
	assert.NotNil(t, none.Relationships)
	assert.Empty(t, none.Relationships)
}

func TestAPITriples(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/triples?limit=3")
	require.NoError(t, err)
	var triples []domain.Triple
	decode(t, resp, &triples)
	assert.Len(t, triples, 3)

	resp, err = http.Get(srv.URL + "/api/triples?limit=many")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func postQuery(t *testing.T, srv *httptest.Server, req QueryRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestAPIQuery(t *testing.T) {
	srv, _ := testServer(t)

	resp := postQuery(t, srv, QueryRequest{Query: "SELECT ?p WHERE { ?p rdfs:domain ?d } ORDER BY ?p"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result domain.QueryResult
	decode(t, resp, &result)
	assert.Equal(t, domain.QueryFormSelect, result.Form)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, zoo+"name", result.Rows[0][0].Value)
}

func TestAPIQueryDefault(t *testing.T) {
	srv, _ := testServer(t)

	resp := postQuery(t, srv, QueryRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result domain.QueryResult
	decode(t, resp, &result)
	assert.Equal(t, []string{"s", "p", "o"}, result.Vars)
	assert.Len(t, result.Rows, 10)
}

func TestAPIQueryErrors(t *testing.T) {
	srv, _ := testServer(t)

	resp := postQuery(t, srv, QueryRequest{Query: "DESCRIBE <http://x/a>"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "SPARQL Query Error", body.Error)

	bad, err := http.Post(srv.URL+"/api/query", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestAPIExport(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{"", http.StatusOK, "application/json"},
		{"yaml", http.StatusOK, "application/x-yaml"},
		{"csv", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/export?format=" + tt.format)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			if tt.status == http.StatusOK {
				assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}
