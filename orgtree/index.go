package orgtree

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when a node ID is absent from the index.
	ErrNodeNotFound = errors.New("org node not found")
	// ErrCycle is returned when the parent chain of a node loops.
	ErrCycle = errors.New("org tree contains a cycle")
)

// Node is a single organization unit: an org type, an enterprise, or a
// department. A node with an empty ParentID is a root.
type Node struct {
	ID       string
	ParentID string
}

// Index is an immutable in-memory view of the organization tree with
// materialized ancestor paths per node. It is rebuilt by the embedding
// admin layer whenever the tree changes; lookups never touch storage.
type Index struct {
	paths map[string][]string
}

// NewIndex builds an [Index] from the given nodes. Ancestor paths are
// materialized eagerly so per-request scope checks are O(path length) map
// lookups with no tree walking.
func NewIndex(nodes []Node) (*Index, error) {
	parents := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return nil, errors.New("org node with empty id")
		}
		if _, dup := parents[n.ID]; dup {
			return nil, fmt.Errorf("duplicate org node %q", n.ID)
		}
		parents[n.ID] = n.ParentID
	}

	ix := &Index{paths: make(map[string][]string, len(nodes))}
	for id := range parents {
		path, err := materialize(id, parents)
		if err != nil {
			return nil, err
		}
		ix.paths[id] = path
	}
	return ix, nil
}

func materialize(id string, parents map[string]string) ([]string, error) {
	path := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)

	for cur := id; cur != ""; {
		if _, looped := seen[cur]; looped {
			return nil, fmt.Errorf("%w: at node %q", ErrCycle, cur)
		}
		seen[cur] = struct{}{}
		path = append(path, cur)

		parent, ok := parents[cur]
		if !ok {
			return nil, fmt.Errorf("%w: %q (parent of %q)", ErrNodeNotFound, cur, id)
		}
		cur = parent
	}
	return path, nil
}

// Contains reports whether the index knows the given node ID.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.paths[id]
	return ok
}

// AncestorPath returns the node's materialized path, ordered from the node
// itself up to its root (inclusive).
func (ix *Index) AncestorPath(id string) ([]string, error) {
	path, ok := ix.paths[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	out := make([]string, len(path))
	copy(out, path)
	return out, nil
}

// IsAncestorOrSelf reports whether scopeID equals nodeID or is an ancestor
// of it.
func (ix *Index) IsAncestorOrSelf(scopeID, nodeID string) (bool, error) {
	path, ok := ix.paths[nodeID]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	for _, id := range path {
		if id == scopeID {
			return true, nil
		}
	}
	return false, nil
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.paths)
}
