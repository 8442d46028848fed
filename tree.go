package gating

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// RootID is the sentinel ID of the tree root. Every gate path starts with
// it, and it is reserved: no gate may use it as an ID.
const RootID = "root"

// pathSeparator joins path elements when a path is given or rendered as a
// single string, e.g. "root/singlets/lymph".
const pathSeparator = "/"

// treeNode is one placement of a gate in the tree. Gate definitions reused
// in several branches get one node per placement; the nodes share the Gate
// but nothing else, since their evaluated populations differ.
type treeNode struct {
	id   string
	gate Gate

	// path holds the ancestor IDs starting with RootID. The root
	// sentinel itself has a nil path.
	path []string

	parent *treeNode

	// children in insertion order. Evaluation and GetGateIDs rely on
	// this order being stable.
	children []*treeNode
}

// fullPath is the node's own path: ancestors plus its ID.
func (n *treeNode) fullPath() []string {
	if n.parent == nil {
		return []string{n.id}
	}
	return append(slices.Clone(n.path), n.id)
}

// gateTree is an ordered forest of gate placements under a sentinel root.
// Nodes are indexed by full path; a secondary ID index exists only to make
// unambiguous ID-only lookups convenient.
type gateTree struct {
	root   *treeNode
	byPath map[string]*treeNode
	byID   map[string][]*treeNode
}

func newGateTree() *gateTree {
	root := &treeNode{id: RootID}
	return &gateTree{
		root:   root,
		byPath: map[string]*treeNode{RootID: root},
		byID:   map[string][]*treeNode{},
	}
}

func pathKey(path []string) string {
	return strings.Join(path, pathSeparator)
}

// insert registers a new placement of g under parentPath. The parent path
// must already exist; the (ID, parentPath) pair must not.
func (t *gateTree) insert(g Gate, parentPath []string) error {
	full := append(slices.Clone(parentPath), g.ID())
	if _, ok := t.byPath[pathKey(full)]; ok {
		return fmt.Errorf("%w: %q at %q", ErrDuplicateGate, g.ID(), pathKey(parentPath))
	}

	parent, ok := t.byPath[pathKey(parentPath)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingParent, pathKey(parentPath))
	}

	n := &treeNode{
		id:     g.ID(),
		gate:   g,
		path:   slices.Clone(parentPath),
		parent: parent,
	}
	parent.children = append(parent.children, n)
	t.byPath[pathKey(full)] = n
	t.byID[n.id] = append(t.byID[n.id], n)
	return nil
}

// lookup resolves a gate by ID. A nil path is allowed while the ID occurs at
// exactly one placement; once the ID is reused, the full ancestor path is
// required.
func (t *gateTree) lookup(id string, path []string) (*treeNode, error) {
	nodes, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGateNotFound, id)
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	if path == nil {
		return nil, fmt.Errorf("%w: %q occurs at %d paths, specify the gate path", ErrAmbiguousGate, id, len(nodes))
	}
	for _, n := range nodes {
		if slices.Equal(n.path, path) {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %q at %q", ErrGateNotFound, id, pathKey(path))
}

// parentOf returns the parent node, or nil when the parent is the root
// sentinel.
func (t *gateTree) parentOf(id string, path []string) (*treeNode, error) {
	n, err := t.lookup(id, path)
	if err != nil {
		return nil, err
	}
	if n.parent == t.root {
		return nil, nil
	}
	return n.parent, nil
}

// childrenOf returns the nodes directly under the placement (id, path), in
// insertion order. Callers that need deterministic diffing should sort the
// result by ID themselves.
func (t *gateTree) childrenOf(id string, path []string) ([]*treeNode, error) {
	n, err := t.lookup(id, path)
	if err != nil {
		return nil, err
	}
	return slices.Clone(n.children), nil
}

// maxDepth is the maximum level across all placements, with the root
// sentinel at level 0. A gate directly under root is at level 1.
func (t *gateTree) maxDepth() int {
	depth := 0
	for n := range t.all() {
		if len(n.path) > depth {
			depth = len(n.path)
		}
	}
	return depth
}

// all returns a restartable depth-first preorder traversal of every
// placement, excluding the root sentinel. A node is always yielded strictly
// after its parent, with siblings in insertion order. This is the
// dependency order Evaluate relies on: by the time a node is yielded, its
// whole ancestor chain has been yielded.
func (t *gateTree) all() iter.Seq[*treeNode] {
	return func(yield func(*treeNode) bool) {
		var walk func(n *treeNode) bool
		walk = func(n *treeNode) bool {
			for _, c := range n.children {
				if !yield(c) {
					return false
				}
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(t.root)
	}
}

// normalizePath canonicalizes a user-supplied gate path. Accepted forms are
// no path at all (nil), path elements ("root", "Gate_A"), or a single
// separator-delimited string ("root/Gate_A"). The root element may be
// omitted; it is prepended if missing.
func normalizePath(path []string) []string {
	if path == nil {
		return nil
	}
	if len(path) == 1 && strings.Contains(path[0], pathSeparator) {
		path = strings.Split(path[0], pathSeparator)
	}
	if len(path) == 0 || path[0] != RootID {
		path = append([]string{RootID}, path...)
	}
	return path
}
