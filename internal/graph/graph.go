package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Position is a node location in layout space. Z only carries meaning when
// HasZ is set; flat renderers ignore it.
type Position struct {
	X    float64
	Y    float64
	Z    float64
	HasZ bool
}

// Vec returns the position as a 3D vector (Z is zero for flat nodes).
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Node is a positioned, labeled, categorized graph vertex.
type Node struct {
	ID       string `validate:"required"`
	Label    string
	Category string
	Position Position
	// Payload holds host data the core never looks at.
	Payload map[string]any
}

// Connection is a directed reference between two node ids.
type Connection struct {
	Source string `json:"source" yaml:"source" validate:"required"`
	Target string `json:"target" yaml:"target" validate:"required"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ConnectionID identifies a connection for the lifetime of a graph.
type ConnectionID string

// Link is a connection paired with its id.
type Link struct {
	ID ConnectionID
	Connection
}

// Data is the host-supplied graph before ingestion.
type Data struct {
	Nodes       []Node
	Connections []Connection
}

// Graph holds nodes and connections. The node set and connection list are
// fixed after New; only node positions change (during drag).
type Graph struct {
	nodes map[string]*Node
	order []string
	links []Link
}

// Stats holds summary counts.
type Stats struct {
	Nodes       int
	Connections int
	Broken      int
	Categories  int
}

func connectionID(c Connection, index int) ConnectionID {
	return ConnectionID(fmt.Sprintf("%s->%s#%d", c.Source, c.Target, index))
}

// New ingests data. Nodes failing validation or sharing an id are rejected;
// connections to unknown nodes are kept and reported later by Resolve.
func New(data Data) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]*Node, len(data.Nodes)),
		order: make([]string, 0, len(data.Nodes)),
		links: make([]Link, 0, len(data.Connections)),
	}

	for i := range data.Nodes {
		n := data.Nodes[i]
		if err := validateStruct(n); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		if _, exists := g.nodes[n.ID]; exists {
			return nil, &DuplicateNodeError{ID: n.ID}
		}
		g.nodes[n.ID] = &n
		g.order = append(g.order, n.ID)
	}

	for i, c := range data.Connections {
		if err := validateStruct(c); err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
		g.links = append(g.links, Link{ID: connectionID(c, i), Connection: c})
	}
	return g, nil
}

// ─── Query ───

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in ingestion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Links returns every connection, including ones Resolve would reject.
func (g *Graph) Links() []Link {
	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}

// Resolve splits connections into those whose endpoints exist and one
// DataIntegrityError per connection that references a missing node.
func (g *Graph) Resolve() ([]Link, []error) {
	valid := make([]Link, 0, len(g.links))
	var errs []error
	for _, l := range g.links {
		if _, ok := g.nodes[l.Source]; !ok {
			errs = append(errs, &DataIntegrityError{Connection: l.ID, Missing: l.Source})
			continue
		}
		if _, ok := g.nodes[l.Target]; !ok {
			errs = append(errs, &DataIntegrityError{Connection: l.ID, Missing: l.Target})
			continue
		}
		valid = append(valid, l)
	}
	return valid, errs
}

// Position returns a node's live position.
func (g *Graph) Position(id string) (Position, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Position{}, false
	}
	return n.Position, true
}

// SetPosition moves a node in place.
func (g *Graph) SetPosition(id string, pos Position) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("node not found: %s", id)
	}
	n.Position = pos
	return nil
}

// Categories returns the sorted set of categories in use.
func (g *Graph) Categories() []string {
	seen := make(map[string]bool)
	for _, n := range g.nodes {
		seen[n.Category] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GetStats returns summary statistics.
func (g *Graph) GetStats() Stats {
	_, broken := g.Resolve()
	return Stats{
		Nodes:       len(g.nodes),
		Connections: len(g.links),
		Broken:      len(broken),
		Categories:  len(g.Categories()),
	}
}

// ─── Snapshot ───

// Snapshot is a copy of every node taken at one instant. A frame reads
// positions from a single snapshot so a drag landing mid-frame cannot tear it.
type Snapshot struct {
	Nodes []Node
	index map[string]int
}

// Snapshot copies the current node set.
func (g *Graph) Snapshot() Snapshot {
	nodes := g.Nodes()
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}
	return Snapshot{Nodes: nodes, index: index}
}

// Position returns the position a node had when the snapshot was taken.
func (s Snapshot) Position(id string) (Position, bool) {
	i, ok := s.index[id]
	if !ok {
		return Position{}, false
	}
	return s.Nodes[i].Position, true
}

// Node returns the snapshot copy of a node.
func (s Snapshot) Node(id string) (Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.Nodes[i], true
}
