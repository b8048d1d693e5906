package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"ontoscope/internal/domain"
	"ontoscope/internal/service"
)

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

// classParam returns the named class parameter, falling back to the first
// class of ont
func classParam(r *http.Request, name string, ont *service.Ontology) string {
	if c := r.URL.Query().Get(name); c != "" {
		return c
	}
	if classes := ont.Classes(); len(classes) > 0 {
		return classes[0]
	}
	return ""
}

// GetSummary returns class and property counts and lists
func (h *ExplorerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ont, ok := h.load(w, r, h.ontologyURL(r))
	if !ok {
		return
	}
	defer ont.Close()

	writeJSON(w, ont.Summary(), http.StatusOK)
}

// GetHierarchy returns the class hierarchy as network nodes and edges
func (h *ExplorerHandler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	ont, ok := h.load(w, r, h.ontologyURL(r))
	if !ok {
		return
	}
	defer ont.Close()

	graph, _, err := h.ex.RenderGraph(ont)
	if err != nil {
		log.Printf("Failed to build hierarchy: %v", err)
		writeError(w, "Failed to build hierarchy", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, graph, http.StatusOK)
}

// GetGraphHTML returns the standalone hierarchy visualization
func (h *ExplorerHandler) GetGraphHTML(w http.ResponseWriter, r *http.Request) {
	ont, ok := h.load(w, r, h.ontologyURL(r))
	if !ok {
		return
	}
	defer ont.Close()

	_, doc, err := h.ex.RenderGraph(ont)
	if err != nil {
		log.Printf("Failed to render hierarchy: %v", err)
		writeError(w, "Failed to render hierarchy", err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		writeError(w, "Renderer not configured", "", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc)
}

// GetProperties returns the properties whose domain includes ?class
func (h *ExplorerHandler) GetProperties(w http.ResponseWriter, r *http.Request) {
	ont, ok := h.load(w, r, h.ontologyURL(r))
	if !ok {
		return
	}
	defer ont.Close()

	class := classParam(r, "class", ont)
	props := ont.ClassProperties(class)
	if props == nil {
		props = []domain.Property{}
	}
	writeJSON(w, map[string]any{
		"class":      class,
		"properties": props,
	}, http.StatusOK)
}

// GetRelationships returns the properties linking ?from to ?to
func (h *ExplorerHandler) GetRelationships(w http.ResponseWriter, r *http.Request) {
	ont, ok := h.load(w, r, h.ontologyURL(r))
	if !ok {
		return
	}
	defer ont.Close()

	from := classParam(r, "from", ont)
	to := classParam(r, "to", ont)
	rels := ont.Relationships(from, to)
	if rels == nil {
		rels = []domain.Relationship{}
	}
	writeJSON(w, map[string]any{
		"from":          from,
		"to":            to,
		"relationships": rels,
	}, http.StatusOK)
}

// GetTriples returns the first ?limit triples
func (h *ExplorerHandler) GetTriples(w http.ResponseWriter, r *http.Request) {
	limit := h.ex.Options().SampleLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, "Invalid limit", fmt.Sprintf("limit must be a non-negative integer, got %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	ont, ok := h.load(w, r, h.ontologyURL(r))
	if !ok {
		return
	}
	defer ont.Close()

	triples, err := ont.Samples(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to sample triples: %v", err)
		writeError(w, "Failed to sample triples", err.Error(), http.StatusInternalServerError)
		return
	}
	if triples == nil {
		triples = []domain.Triple{}
	}
	writeJSON(w, triples, http.StatusOK)
}

// RunQuery evaluates a SPARQL query against the named ontology
func (h *ExplorerHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		url = h.defaultURL
	}
	query := req.Query
	if strings.TrimSpace(query) == "" {
		query = h.ex.Options().DefaultQuery
	}

	ont, ok := h.load(w, r, url)
	if !ok {
		return
	}
	defer ont.Close()

	result, err := h.ex.Query(r.Context(), ont, query)
	if err != nil {
		var qe *service.QueryError
		if errors.As(err, &qe) {
			writeError(w, "SPARQL Query Error", qe.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Failed to run query: %v", err)
		writeError(w, "Failed to run query", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result, http.StatusOK)
}

// Export downloads the ontology report as JSON or YAML
func (h *ExplorerHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	contentType, ext := "application/json", "json"
	switch format {
	case "", "json":
	case "yaml", "yml":
		contentType, ext = "application/x-yaml", "yml"
	default:
		writeError(w, "Unsupported export format", fmt.Sprintf("format %q is not json or yaml", format), http.StatusBadRequest)
		return
	}

	ont, ok := h.load(w, r, h.ontologyURL(r))
	if !ok {
		return
	}
	defer ont.Close()

	var buf bytes.Buffer
	if err := h.ex.Export(r.Context(), ont, format, &buf); err != nil {
		log.Printf("Failed to export report: %v", err)
		writeError(w, "Failed to export report", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=ontology."+ext)
	w.Write(buf.Bytes())
}
