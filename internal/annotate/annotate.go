// Package annotate precomputes, for every pass, the nested passes reachable
// below it.
package annotate

import (
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
)

// Node is a pass with its reachable nested passes.
type Node struct {
	Pass     *model.PassNode
	Children []Child
	// DescendantIDs lists every nested pass identity below this node, each
	// once, in pre-order of first encounter. DescendantSubtrees is parallel
	// to it.
	DescendantIDs      []element.ID
	DescendantSubtrees []*Node
}

// Child is an annotated nested pass and the uniform that samples it.
type Child struct {
	ID      element.ID
	Uniform string
	Node    *Node
}

// Annotate annotates the tree rooted at pass. It cannot fail.
func Annotate(pass *model.PassNode) *Node {
	n := &Node{Pass: pass}
	seen := make(map[element.ID]bool)
	add := func(id element.ID, sub *Node) {
		if seen[id] {
			return
		}
		seen[id] = true
		n.DescendantIDs = append(n.DescendantIDs, id)
		n.DescendantSubtrees = append(n.DescendantSubtrees, sub)
	}

	for _, c := range pass.Children {
		child := Annotate(c.Node)
		n.Children = append(n.Children, Child{ID: c.ID, Uniform: c.Uniform, Node: child})
		add(c.ID, child)
		for i, id := range child.DescendantIDs {
			add(id, child.DescendantSubtrees[i])
		}
	}
	return n
}

// Reachable returns the identities found under the direct child c: c itself
// followed by its descendants.
func (c Child) Reachable() []element.ID {
	ids := make([]element.ID, 0, len(c.Node.DescendantIDs)+1)
	ids = append(ids, c.ID)
	for _, id := range c.Node.DescendantIDs {
		if id != c.ID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Subtree returns the annotated pass with the given identity, searching this
// node's children and their descendants.
func (n *Node) Subtree(id element.ID) (*Node, bool) {
	for i, d := range n.DescendantIDs {
		if d == id {
			return n.DescendantSubtrees[i], true
		}
	}
	return nil, false
}
