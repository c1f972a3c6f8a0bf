package graph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportJSON returns the graph in its wire shape, pretty-printed. Payload
// keys are flattened back onto each node.
func (g *Graph) ExportJSON() ([]byte, error) {
	nodes := make([]map[string]any, 0, len(g.order))
	for _, id := range g.order {
		n := g.nodes[id]
		m := make(map[string]any, len(n.Payload)+6)
		for k, v := range n.Payload {
			m[k] = v
		}
		m["id"] = n.ID
		m["label"] = n.Label
		m["category"] = n.Category
		m["x"] = n.Position.X
		m["y"] = n.Position.Y
		if n.Position.HasZ {
			m["z"] = n.Position.Z
		}
		nodes = append(nodes, m)
	}

	conns := make([]Connection, 0, len(g.links))
	for _, l := range g.links {
		conns = append(conns, l.Connection)
	}

	return json.MarshalIndent(document{Nodes: nodes, Connections: conns}, "", "  ")
}

// ExportDOT returns the graph in Graphviz DOT format. Node positions are
// emitted as pinned pos attributes so neato keeps the layout.
func (g *Graph) ExportDOT() string {
	var b strings.Builder
	b.WriteString("digraph flowviz {\n")
	b.WriteString("  node [shape=circle];\n\n")

	for _, id := range g.order {
		n := g.nodes[id]
		label := n.Label
		if label == "" {
			label = n.ID
		}
		if n.Category != "" {
			label += "\\n(" + n.Category + ")"
		}
		b.WriteString(fmt.Sprintf("  %q [label=%q, pos=\"%g,%g!\"];\n", n.ID, label, n.Position.X, -n.Position.Y))
	}

	valid, _ := g.Resolve()
	if len(valid) > 0 {
		b.WriteString("\n")
	}
	for _, l := range valid {
		if l.Label != "" {
			b.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", l.Source, l.Target, l.Label))
		} else {
			b.WriteString(fmt.Sprintf("  %q -> %q;\n", l.Source, l.Target))
		}
	}

	b.WriteString("}\n")
	return b.String()
}
