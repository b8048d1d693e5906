package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"ontoscope/internal/codec"
	"ontoscope/internal/domain"
	"ontoscope/internal/fetch"
	"ontoscope/internal/metrics"
	"ontoscope/internal/repository"
	"ontoscope/internal/repository/sqlite"
	"ontoscope/internal/sparql"
)

// sniffLen is how much of a document is inspected to guess its format
const sniffLen = 512

// DocumentFetcher retrieves ontology documents
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Document, error)
}

// GraphRenderer renders a hierarchy graph as an HTML document
type GraphRenderer interface {
	Render(graph *domain.Graph) ([]byte, error)
}

// StoreFactory opens an empty triple store for one interaction
type StoreFactory func() (repository.TripleStore, error)

// Options configures an Explorer
type Options struct {
	DefaultQuery     string
	SampleLimit      int
	PropertyTypes    []string
	SkipBlankParents bool
	Limits           sparql.Limits
	LoadTimeout      time.Duration
}

// Explorer loads ontologies and answers exploration requests
type Explorer struct {
	fetcher  DocumentFetcher
	renderer GraphRenderer
	metrics  *metrics.Metrics
	newStore StoreFactory
	opts     Options
}

// NewExplorer creates an explorer. A nil renderer skips graph rendering and
// nil metrics records nothing.
func NewExplorer(fetcher DocumentFetcher, renderer GraphRenderer, m *metrics.Metrics, opts Options) *Explorer {
	return &Explorer{
		fetcher:  fetcher,
		renderer: renderer,
		metrics:  m,
		newStore: func() (repository.TripleStore, error) { return sqlite.NewMemory() },
		opts:     opts,
	}
}

// WithStoreFactory replaces the in-memory SQLite store used per load
func (e *Explorer) WithStoreFactory(f StoreFactory) *Explorer {
	e.newStore = f
	return e
}

// Options returns the explorer's configuration
func (e *Explorer) Options() Options {
	return e.opts
}

// Load fetches and parses the ontology at url into a fresh store. Every
// failure is a *LoadError. The caller must Close the returned ontology.
func (e *Explorer) Load(ctx context.Context, url string) (*Ontology, error) {
	start := time.Now()
	ont, err := e.load(ctx, url)
	if err != nil {
		e.metrics.ObserveLoad(time.Since(start), 0, err)
		log.Printf("Failed to load ontology %s: %v", url, err)
		return nil, &LoadError{URL: url, Err: err}
	}

	e.metrics.ObserveLoad(time.Since(start), ont.tripleCount, nil)
	log.Printf("Loaded ontology %s: %d triples, %d classes, %d properties in %s",
		url, ont.tripleCount, len(ont.classes), len(ont.properties), time.Since(start).Round(time.Millisecond))
	return ont, nil
}

func (e *Explorer) load(ctx context.Context, url string) (*Ontology, error) {
	if e.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.LoadTimeout)
		defer cancel()
	}

	doc, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	head := doc.Body
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	importer, err := codec.ImporterFor(codec.DetectFormat(doc.ContentType, doc.URL, head))
	if err != nil {
		return nil, err
	}
	triples, err := importer.Parse(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", importer.Format(), err)
	}

	store, err := e.newStore()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	ont := &Ontology{URL: url, store: store}
	if _, err := store.Add(ctx, triples); err != nil {
		store.Close()
		return nil, fmt.Errorf("store triples: %w", err)
	}
	if err := ont.build(ctx, e.opts.PropertyTypes); err != nil {
		store.Close()
		return nil, err
	}
	return ont, nil
}

// Query parses and evaluates src against ont. Every failure is a *QueryError.
func (e *Explorer) Query(ctx context.Context, ont *Ontology, src string) (*domain.QueryResult, error) {
	start := time.Now()

	q, err := sparql.Parse(src)
	if err != nil {
		e.metrics.ObserveQuery("", time.Since(start), err)
		return nil, &QueryError{Query: src, Err: err}
	}

	result, err := ont.store.Query(ctx, q, e.opts.Limits)
	e.metrics.ObserveQuery(string(q.Form), time.Since(start), err)
	if err != nil {
		return nil, &QueryError{Query: src, Err: err}
	}
	return result, nil
}

// Export writes the ontology report in format
func (e *Explorer) Export(ctx context.Context, ont *Ontology, format string, w io.Writer) error {
	exporter, err := codec.ExporterFor(format)
	if err != nil {
		return err
	}
	report, err := ont.Report(ctx, e.opts.SampleLimit, e.opts.SkipBlankParents)
	if err != nil {
		return err
	}
	return exporter.Export(report, w)
}

// RenderGraph renders the class hierarchy of ont
func (e *Explorer) RenderGraph(ont *Ontology) (*domain.Graph, []byte, error) {
	graph := domain.DeriveGraph(ont.Hierarchy(e.opts.SkipBlankParents))
	if e.renderer == nil {
		return graph, nil, nil
	}
	doc, err := e.renderer.Render(graph)
	if err != nil {
		return graph, nil, err
	}
	return graph, doc, nil
}

// Request is one user interaction with the explorer
type Request struct {
	URL           string
	SelectedClass string
	FromClass     string
	ToClass       string
	Query         string
	RunQuery      bool
	SampleLimit   int
}

// Response holds everything derived for one Request. When LoadErr is set
// only URL and LoadErr are populated.
type Response struct {
	URL     string
	Loaded  bool
	LoadErr *LoadError

	Summary   *domain.Summary
	Hierarchy *domain.Hierarchy
	Graph     *domain.Graph
	GraphHTML string

	Classes         []string
	SelectedClass   string
	ClassProperties []domain.Property

	FromClass     string
	ToClass       string
	Relationships []domain.Relationship

	SampleTriples []domain.Triple

	Query       string
	QueryResult *domain.QueryResult
	QueryErr    *QueryError
}

// Explore loads req.URL and derives every view of it. A load or query
// failure is reported in the Response; the returned error is reserved for
// failures of the explorer itself.
func (e *Explorer) Explore(ctx context.Context, req Request) (*Response, error) {
	resp := &Response{URL: req.URL, Query: req.Query}
	if resp.Query == "" {
		resp.Query = e.opts.DefaultQuery
	}
	if req.URL == "" {
		return resp, nil
	}

	ont, err := e.Load(ctx, req.URL)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			resp.LoadErr = le
			return resp, nil
		}
		return nil, err
	}
	defer ont.Close()
	resp.Loaded = true

	resp.Summary = ont.Summary()
	resp.Classes = ont.Classes()

	resp.Hierarchy = ont.Hierarchy(e.opts.SkipBlankParents)
	resp.Graph = domain.DeriveGraph(resp.Hierarchy)
	if e.renderer != nil {
		doc, err := e.renderer.Render(resp.Graph)
		if err != nil {
			return nil, err
		}
		resp.GraphHTML = string(doc)
	}

	resp.SelectedClass = e.pickClass(req.SelectedClass, resp.Classes)
	resp.ClassProperties = ont.ClassProperties(resp.SelectedClass)

	resp.FromClass = e.pickClass(req.FromClass, resp.Classes)
	resp.ToClass = e.pickClass(req.ToClass, resp.Classes)
	resp.Relationships = ont.Relationships(resp.FromClass, resp.ToClass)

	limit := req.SampleLimit
	if limit <= 0 {
		limit = e.opts.SampleLimit
	}
	resp.SampleTriples, err = ont.Samples(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("sample triples: %w", err)
	}

	if req.RunQuery {
		result, err := e.Query(ctx, ont, resp.Query)
		if err != nil {
			var qe *QueryError
			if !errors.As(err, &qe) {
				return nil, err
			}
			resp.QueryErr = qe
		} else {
			resp.QueryResult = result
		}
	}

	return resp, nil
}

// pickClass falls back to the first class when none is chosen
func (e *Explorer) pickClass(chosen string, classes []string) string {
	if chosen != "" || len(classes) == 0 {
		return chosen
	}
	return classes[0]
}
