package merkle

import (
	"errors"
	"fmt"

	"proof-of-portfolio/internal/field"
)

var (
	// ErrTooManyLeaves is returned when the leaves do not fit the tree.
	ErrTooManyLeaves = errors.New("too many leaves")

	// ErrLeafIndex is returned for a path request outside the tree.
	ErrLeafIndex = errors.New("leaf index out of range")
)

// Path is the authentication path of one leaf, ordered leaf to root.
type Path struct {
	Elements []field.Element `json:"elements"`
	Indices  []int           `json:"indices"` // 0: node is a left child, 1: right child
}

// Tree is a complete binary tree of fixed depth.
type Tree struct {
	depth  int
	levels [][]field.Element // levels[0] leaves, levels[depth] root
}

// Build hashes leaves into a tree of 2^depth leaves. Slots beyond the given
// leaves are filled with pad.
func Build(leaves []field.Element, depth int, h Hasher, pad field.Element) (*Tree, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("merkle depth must be positive, got %d", depth)
	}
	capacity := 1 << depth
	if len(leaves) > capacity {
		return nil, fmt.Errorf("%w: %d leaves, capacity %d", ErrTooManyLeaves, len(leaves), capacity)
	}

	level := make([]field.Element, capacity)
	copy(level, leaves)
	for i := len(leaves); i < capacity; i++ {
		level[i] = pad
	}

	t := &Tree{depth: depth, levels: make([][]field.Element, 0, depth+1)}
	t.levels = append(t.levels, level)
	for d := 0; d < depth; d++ {
		next := make([]field.Element, len(level)/2)
		for i := range next {
			next[i] = h.Hash(level[2*i], level[2*i+1])
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Root returns the tree root.
func (t *Tree) Root() field.Element {
	return t.levels[t.depth][0]
}

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int {
	return t.depth
}

// Capacity returns the number of leaf slots.
func (t *Tree) Capacity() int {
	return len(t.levels[0])
}

// Leaf returns leaf i.
func (t *Tree) Leaf(i int) field.Element {
	return t.levels[0][i]
}

// Path returns the authentication path for leaf i.
func (t *Tree) Path(i int) (Path, error) {
	if i < 0 || i >= t.Capacity() {
		return Path{}, fmt.Errorf("%w: %d not in [0, %d)", ErrLeafIndex, i, t.Capacity())
	}
	p := Path{
		Elements: make([]field.Element, t.depth),
		Indices:  make([]int, t.depth),
	}
	idx := i
	for d := 0; d < t.depth; d++ {
		p.Indices[d] = idx & 1
		p.Elements[d] = t.levels[d][idx^1]
		idx >>= 1
	}
	return p, nil
}

// Verify recomputes the root from leaf and path.
func Verify(root, leaf field.Element, p Path, h Hasher) bool {
	if len(p.Elements) != len(p.Indices) {
		return false
	}
	node := leaf
	for d, sibling := range p.Elements {
		switch p.Indices[d] {
		case 0:
			node = h.Hash(node, sibling)
		case 1:
			node = h.Hash(sibling, node)
		default:
			return false
		}
	}
	return node.Equal(root)
}
