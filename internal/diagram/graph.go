package diagram

// Node is a labelled vertex of a diagram export.
type Node struct {
	ID    string
	Label string
}

// Edge connects two node ids. Either endpoint may be empty for a dangling
// arrow; such edges are kept but can never be traversed.
type Edge struct {
	Source string
	Target string
}

// Graph manages nodes and their connections.
// Nodes live in an arena addressed by integer handles so traversal never
// touches the string ids.
type Graph struct {
	Nodes []Node
	Edges []Edge

	index map[string]int
	// adj holds neighbour handles in edge parse order.
	adj    [][]int
	linked bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: []Node{},
		Edges: []Edge{},
		index: make(map[string]int),
	}
}

// AddNode adds a node, or relabels it if the id is already known.
func (g *Graph) AddNode(id, label string) {
	if h, ok := g.index[id]; ok {
		g.Nodes[h].Label = label
		return
	}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, Label: label})
	g.linked = false
}

// AddEdge records an edge. Adjacency is rebuilt lazily by Link.
func (g *Graph) AddEdge(source, target string) {
	g.Edges = append(g.Edges, Edge{Source: source, Target: target})
	g.linked = false
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	h, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[h], true
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Link (re)builds the undirected adjacency list from the edge list.
// Edges whose endpoints are not both known nodes are skipped.
func (g *Graph) Link() {
	g.adj = make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		from, okFrom := g.index[e.Source]
		to, okTo := g.index[e.Target]
		if !okFrom || !okTo {
			continue
		}
		g.adj[from] = append(g.adj[from], to)
		if from != to {
			g.adj[to] = append(g.adj[to], from)
		}
	}
	g.linked = true
}

// Neighbors returns the ids adjacent to id, in edge parse order.
func (g *Graph) Neighbors(id string) []string {
	h, ok := g.index[id]
	if !ok {
		return nil
	}
	g.ensureLinked()
	out := make([]string, 0, len(g.adj[h]))
	for _, n := range g.adj[h] {
		out = append(out, g.Nodes[n].ID)
	}
	return out
}

func (g *Graph) ensureLinked() {
	if !g.linked {
		g.Link()
	}
}
