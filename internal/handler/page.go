package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"

	"ontoscope/internal/service"
)

//go:embed templates/*
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/page.html"))

// Page renders the explorer. Parameters come from the query string or a
// posted form: url, class, from, to, query, and run to evaluate the query.
// Without a url parameter the default ontology is loaded; an explicitly
// empty url loads nothing.
func (h *ExplorerHandler) Page(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := service.Request{
		URL:           strings.TrimSpace(r.Form.Get("url")),
		SelectedClass: r.Form.Get("class"),
		FromClass:     r.Form.Get("from"),
		ToClass:       r.Form.Get("to"),
		Query:         r.Form.Get("query"),
		RunQuery:      r.Form.Get("run") != "",
	}
	if _, ok := r.Form["url"]; !ok {
		req.URL = h.defaultURL
	}

	resp, err := h.ex.Explore(r.Context(), req)
	if err != nil {
		log.Printf("Failed to explore %s: %v", req.URL, err)
		http.Error(w, "Failed to explore ontology", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, resp); err != nil {
		log.Printf("Failed to render page: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
