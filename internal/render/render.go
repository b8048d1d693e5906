// Package render turns a class hierarchy graph into a self-contained
// vis-network HTML document. The document is rendered in memory; the page
// embeds it through an iframe srcdoc.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"ontoscope/internal/domain"
)

// Options control the size of the network canvas and where the
// vis-network script is loaded from
type Options struct {
	Height    string
	Width     string
	ScriptURL string
}

// Renderer renders hierarchy graphs
type Renderer struct {
	opts Options
	tmpl *template.Template
}

var documentTemplate = template.Must(template.New("network").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Class hierarchy</title>
<script src="{{.ScriptURL}}"></script>
<style>
body { margin: 0; }
#hierarchy { border: 1px solid lightgray; }
</style>
</head>
<body>
<div id="hierarchy" style="width: {{.Width}}; height: {{.Height}};"></div>
<script>
var nodes = new vis.DataSet({{.Nodes}});
var edges = new vis.DataSet({{.Edges}});
var network = new vis.Network(document.getElementById("hierarchy"), {nodes: nodes, edges: edges}, {
  nodes: {shape: "dot", scaling: {min: 8, max: 30}},
  edges: {arrows: "to", smooth: {type: "dynamic"}},
  physics: {stabilization: {iterations: 200}},
  interaction: {hover: true}
});
</script>
</body>
</html>
`))

type documentData struct {
	Options
	Nodes []domain.GraphNode
	Edges []domain.GraphEdge
}

// New creates a renderer
func New(opts Options) *Renderer {
	return &Renderer{opts: opts, tmpl: documentTemplate}
}

// Render produces the HTML document for graph
func (r *Renderer) Render(graph *domain.Graph) ([]byte, error) {
	data := documentData{
		Options: r.opts,
		Nodes:   []domain.GraphNode{},
		Edges:   []domain.GraphEdge{},
	}
	if graph != nil {
		if graph.Nodes != nil {
			data.Nodes = graph.Nodes
		}
		if graph.Edges != nil {
			data.Edges = graph.Edges
		}
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render hierarchy: %w", err)
	}
	return buf.Bytes(), nil
}
