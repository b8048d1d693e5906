package domain

import (
	"fmt"
	"strings"
)

// Graph is the derived view for vis-network visualization
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode represents a node in the visualization
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"` // Tooltip content
	Value int    `json:"value"` // Subclass count, used for sizing
}

// GraphEdge represents an edge in the visualization
type GraphEdge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// DeriveGraph converts a Hierarchy to a vis-network compatible Graph
func DeriveGraph(h *Hierarchy) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, h.NodeCount()),
		Edges: make([]GraphEdge, 0, h.EdgeCount()),
	}

	for _, id := range h.Nodes() {
		count := h.SubclassCount(id)
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    id,
			Label: LocalName(id),
			Title: fmt.Sprintf("Subclasses: %d", count),
			Value: count,
		})
	}

	for _, e := range h.Edges() {
		graph.Edges = append(graph.Edges, GraphEdge{
			ID:   e.GenerateID(),
			From: e.Parent,
			To:   e.Child,
		})
	}

	return graph
}

// LocalName returns the part of an IRI after the last '#' or '/'.
// Identifiers without either are returned unchanged.
func LocalName(iri string) string {
	trimmed := strings.TrimRight(iri, "/#")
	if i := strings.LastIndexAny(trimmed, "#/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	if trimmed == "" {
		return iri
	}
	return trimmed
}
