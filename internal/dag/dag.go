package dag

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a block with the given address. Adding an existing block
// does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:        id,
		refs:      make(map[string]*node),
		referrers: make(map[string]*node),
	}
}

// AddEdge records that block from references block to. Both blocks must
// exist. A block referencing itself is a cycle of length one.
func (g *Graph) AddEdge(from, to string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("unknown block: %s", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("unknown block: %s", to)
	}
	if from == to {
		return &CycleError{Path: []string{from, from}}
	}

	fromNode.refs[to] = toNode
	toNode.referrers[from] = fromNode
	return nil
}

// References returns the blocks id references, sorted.
func (g *Graph) References(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("unknown block: %s", id)
	}
	return sortedKeys(n.refs), nil
}

// Referrers returns the blocks referencing id, sorted.
func (g *Graph) Referrers(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("unknown block: %s", id)
	}
	return sortedKeys(n.referrers), nil
}

// DetectCycles returns a *CycleError for the first cycle found, visiting
// blocks in address order so the reported path is stable.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Depth-first search; a block on the current stack that is reached
	// again closes a cycle.
	done := make(map[string]bool)
	onStack := make(map[string]int)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if done[n.id] {
			return nil
		}
		if at, ok := onStack[n.id]; ok {
			path := append([]string(nil), stack[at:]...)
			return &CycleError{Path: append(path, n.id)}
		}

		onStack[n.id] = len(stack)
		stack = append(stack, n.id)
		for _, ref := range sortedKeys(n.refs) {
			if err := visit(n.refs[ref]); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, n.id)
		done[n.id] = true
		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// Order returns every block after the blocks it references. Ties are broken
// by address. It fails with a *CycleError when no such order exists.
func (g *Graph) Order() ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var order []string
	placed := make(map[string]bool, len(g.nodes))
	var place func(n *node)
	place = func(n *node) {
		if placed[n.id] {
			return
		}
		placed[n.id] = true
		for _, ref := range sortedKeys(n.refs) {
			place(n.refs[ref])
		}
		order = append(order, n.id)
	}
	for _, id := range sortedKeys(g.nodes) {
		place(g.nodes[id])
	}
	return order, nil
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
