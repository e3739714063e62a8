package diagram

import "sort"

// ResolvedPaths maps every node reachable from the root to its path.
type ResolvedPaths struct {
	RootID    string
	Separator string
	// Order lists node ids in breadth-first discovery order.
	Order []string
	Paths map[string]string
}

// Path returns the resolved path for id.
func (rp *ResolvedPaths) Path(id string) (string, bool) {
	p, ok := rp.Paths[id]
	return p, ok
}

// Len returns the number of resolved nodes.
func (rp *ResolvedPaths) Len() int {
	return len(rp.Order)
}

// ResolvePaths walks the graph breadth-first from rootID, treating edges as
// undirected, and derives a path for every node it reaches. Neighbours are
// visited in edge parse order and a node keeps the path of whichever node
// discovered it first; later edges into it are ignored.
func ResolvePaths(g *Graph, rootID, separator string) (*ResolvedPaths, error) {
	root, ok := g.index[rootID]
	if !ok {
		return nil, &UnknownRootError{RootID: rootID}
	}
	g.ensureLinked()

	paths := make([]string, len(g.Nodes))
	visited := make([]bool, len(g.Nodes))
	order := make([]int, 0, len(g.Nodes))

	paths[root] = g.Nodes[root].Label
	visited[root] = true
	queue := []int{root}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		for _, next := range g.adj[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			paths[next] = paths[cur] + separator + g.Nodes[next].Label
			queue = append(queue, next)
		}
	}

	rp := &ResolvedPaths{
		RootID:    rootID,
		Separator: separator,
		Order:     make([]string, 0, len(order)),
		Paths:     make(map[string]string, len(order)),
	}
	for _, h := range order {
		id := g.Nodes[h].ID
		rp.Order = append(rp.Order, id)
		rp.Paths[id] = paths[h]
	}
	return rp, nil
}

// Collisions returns every path shared by more than one node, with the
// colliding ids in discovery order.
func (rp *ResolvedPaths) Collisions() map[string][]string {
	byPath := make(map[string][]string)
	for _, id := range rp.Order {
		p := rp.Paths[id]
		byPath[p] = append(byPath[p], id)
	}
	out := make(map[string][]string)
	for p, ids := range byPath {
		if len(ids) > 1 {
			out[p] = ids
		}
	}
	return out
}

// CollidingPaths returns the keys of Collisions in sorted order.
func (rp *ResolvedPaths) CollidingPaths() []string {
	c := rp.Collisions()
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
