package domain

import "sort"

// ParentLookup returns the declared superclasses of a class. It may return
// an empty slice, and may return identifiers that are not themselves classes.
type ParentLookup func(class string) []string

// Hierarchy is a directed class hierarchy graph. Edges point from a
// superclass to a direct subclass, so a node's out-degree is its number of
// direct subclasses. Only identifiers that appear on an edge are nodes.
type Hierarchy struct {
	nodes   []string
	nodeSet map[string]struct{}
	edges   []HierarchyEdge
	edgeSet map[HierarchyEdge]struct{}
	succ    map[string][]string
	pred    map[string][]string
}

// NewHierarchy creates an empty hierarchy
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		nodeSet: make(map[string]struct{}),
		edgeSet: make(map[HierarchyEdge]struct{}),
		succ:    make(map[string][]string),
		pred:    make(map[string][]string),
	}
}

// BuildHierarchy adds an edge (p, c) for every class c and every parent p of
// c. Cycles are kept as-is; the build never fails.
func BuildHierarchy(classes []string, parents ParentLookup) *Hierarchy {
	h := NewHierarchy()
	for _, c := range classes {
		for _, p := range parents(c) {
			h.AddEdge(p, c)
		}
	}
	return h
}

// AddEdge inserts the edge parent -> child and both endpoints. It returns
// false if the edge was already present.
func (h *Hierarchy) AddEdge(parent, child string) bool {
	edge := NewHierarchyEdge(parent, child)
	if _, ok := h.edgeSet[edge]; ok {
		return false
	}
	h.edgeSet[edge] = struct{}{}
	h.edges = append(h.edges, edge)
	h.addNode(parent)
	h.addNode(child)
	h.succ[parent] = append(h.succ[parent], child)
	h.pred[child] = append(h.pred[child], parent)
	return true
}

func (h *Hierarchy) addNode(id string) {
	if _, ok := h.nodeSet[id]; ok {
		return
	}
	h.nodeSet[id] = struct{}{}
	h.nodes = append(h.nodes, id)
}

// Nodes returns the node identifiers in insertion order
func (h *Hierarchy) Nodes() []string {
	out := make([]string, len(h.nodes))
	copy(out, h.nodes)
	return out
}

// Edges returns the edges in insertion order
func (h *Hierarchy) Edges() []HierarchyEdge {
	out := make([]HierarchyEdge, len(h.edges))
	copy(out, h.edges)
	return out
}

// NodeCount returns the number of nodes
func (h *Hierarchy) NodeCount() int { return len(h.nodes) }

// EdgeCount returns the number of distinct edges
func (h *Hierarchy) EdgeCount() int { return len(h.edges) }

// HasNode reports whether id is a node of the hierarchy
func (h *Hierarchy) HasNode(id string) bool {
	_, ok := h.nodeSet[id]
	return ok
}

// HasEdge reports whether the edge parent -> child is present
func (h *Hierarchy) HasEdge(parent, child string) bool {
	_, ok := h.edgeSet[NewHierarchyEdge(parent, child)]
	return ok
}

// Successors returns the direct subclasses of id
func (h *Hierarchy) Successors(id string) []string {
	out := make([]string, len(h.succ[id]))
	copy(out, h.succ[id])
	return out
}

// Predecessors returns the direct superclasses of id
func (h *Hierarchy) Predecessors(id string) []string {
	out := make([]string, len(h.pred[id]))
	copy(out, h.pred[id])
	return out
}

// SubclassCount returns the out-degree of id
func (h *Hierarchy) SubclassCount(id string) int {
	return len(h.succ[id])
}

// Roots returns the nodes without a superclass, sorted. A hierarchy made
// only of cycles has no roots.
func (h *Hierarchy) Roots() []string {
	var roots []string
	for _, n := range h.nodes {
		if len(h.pred[n]) == 0 {
			roots = append(roots, n)
		}
	}
	sort.Strings(roots)
	return roots
}

// Equal compares node and edge sets, ignoring insertion order
func (h *Hierarchy) Equal(other *Hierarchy) bool {
	if h == nil || other == nil {
		return h == other
	}
	if len(h.nodeSet) != len(other.nodeSet) || len(h.edgeSet) != len(other.edgeSet) {
		return false
	}
	for n := range h.nodeSet {
		if _, ok := other.nodeSet[n]; !ok {
			return false
		}
	}
	for e := range h.edgeSet {
		if _, ok := other.edgeSet[e]; !ok {
			return false
		}
	}
	return true
}
