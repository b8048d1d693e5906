package domain

import (
	"crypto/sha256"
	"fmt"
)

// HierarchyEdge points from a superclass to one of its direct subclasses
type HierarchyEdge struct {
	Parent string `json:"parent" yaml:"parent"`
	Child  string `json:"child" yaml:"child"`
}

// NewHierarchyEdge creates an edge from parent to child
func NewHierarchyEdge(parent, child string) HierarchyEdge {
	return HierarchyEdge{Parent: parent, Child: child}
}

// GenerateID creates a deterministic ID for the edge. Direction matters:
// (A, B) and (B, A) are different edges.
func (e HierarchyEdge) GenerateID() string {
	key := fmt.Sprintf("%s->%s", e.Parent, e.Child)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

