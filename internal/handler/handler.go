package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"ontoscope/internal/service"
)

// ExplorerHandler serves the explorer page and its JSON API
type ExplorerHandler struct {
	ex         *service.Explorer
	defaultURL string
}

// NewExplorerHandler creates a handler. defaultURL is loaded when a request
// does not name an ontology.
func NewExplorerHandler(ex *service.Explorer, defaultURL string) *ExplorerHandler {
	return &ExplorerHandler{ex: ex, defaultURL: defaultURL}
}

// Register adds the page, API and health routes to mux
func (h *ExplorerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Page)
	mux.HandleFunc("POST /{$}", h.Page)

	mux.HandleFunc("GET /api/summary", h.GetSummary)
	mux.HandleFunc("GET /api/hierarchy", h.GetHierarchy)
	mux.HandleFunc("GET /api/graph.html", h.GetGraphHTML)
	mux.HandleFunc("GET /api/properties", h.GetProperties)
	mux.HandleFunc("GET /api/relationships", h.GetRelationships)
	mux.HandleFunc("GET /api/triples", h.GetTriples)
	mux.HandleFunc("POST /api/query", h.RunQuery)
	mux.HandleFunc("GET /api/export", h.Export)

	mux.HandleFunc("GET /healthz", h.Health)
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Health reports that the server is up
func (h *ExplorerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// ontologyURL returns the url parameter, or the default when it is absent
func (h *ExplorerHandler) ontologyURL(r *http.Request) string {
	if u := strings.TrimSpace(r.URL.Query().Get("url")); u != "" {
		return u
	}
	return h.defaultURL
}

// load opens the ontology a request names. On failure the error response is
// already written.
func (h *ExplorerHandler) load(w http.ResponseWriter, r *http.Request, url string) (*service.Ontology, bool) {
	ont, err := h.ex.Load(r.Context(), url)
	if err != nil {
		var le *service.LoadError
		if errors.As(err, &le) {
			writeError(w, "Failed to load ontology", le.Err.Error(), http.StatusBadGateway)
			return nil, false
		}
		log.Printf("Failed to load ontology %s: %v", url, err)
		writeError(w, "Failed to load ontology", err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return ont, true
}

// Helper methods

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
