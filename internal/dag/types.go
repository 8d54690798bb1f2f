package dag

import (
	"strings"
	"sync"
)

// Graph is a set of blocks and the references between them. All operations
// on the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
}

// node is one block, keyed by its address such as "pass.blur".
type node struct {
	id string
	// refs are the blocks this block references.
	refs map[string]*node
	// referrers are the blocks referencing this block.
	referrers map[string]*node
}

// CycleError reports a chain of references that leads back to its start.
// Path begins and ends with the same block.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "reference cycle: " + strings.Join(e.Path, " -> ")
}
