package merkle

import (
	"fmt"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/field"
	"proof-of-portfolio/internal/signals"
)

// Commitment is an immutable Merkle commitment over a padded leaf list.
type Commitment struct {
	Root      field.Element
	ActualLen int
	Depth     int
	HashFunc  string

	tree *Tree
}

// Capacity returns the number of leaf slots.
func (c *Commitment) Capacity() int {
	return c.tree.Capacity()
}

// Leaf returns leaf i.
func (c *Commitment) Leaf(i int) field.Element {
	return c.tree.Leaf(i)
}

// Path returns the authentication path of leaf i.
func (c *Commitment) Path(i int) (Path, error) {
	return c.tree.Path(i)
}

// Paths returns the authentication path of every leaf slot, padding included.
func (c *Commitment) Paths() []Path {
	out := make([]Path, c.Capacity())
	for i := range out {
		out[i], _ = c.tree.Path(i)
	}
	return out
}

// PathFields flattens every path into decimal strings and direction bits,
// the layout circuit witnesses are written in.
func (c *Commitment) PathFields() ([][]string, [][]int) {
	paths := c.Paths()
	elements := make([][]string, len(paths))
	indices := make([][]int, len(paths))
	for i, p := range paths {
		elements[i] = field.Strings(p.Elements)
		indices[i] = p.Indices
	}
	return elements, indices
}

// SignalLeaf hashes one signal into a leaf.
func SignalLeaf(h Hasher, s domain.Signal) field.Element {
	return h.Hash(s.Fields()...)
}

// SentinelLeaf is the leaf of the all-zero padding signal.
func SentinelLeaf(h Hasher) field.Element {
	return SignalLeaf(h, domain.Signal{})
}

// BuildSignalCommitment hashes every slot of set, padding included, into a
// tree of the given depth.
func BuildSignalCommitment(set *signals.SignalSet, depth int, h Hasher) (*Commitment, error) {
	if set == nil {
		return nil, fmt.Errorf("nil signal set: %w", signals.ErrNoSignals)
	}
	leaves := make([]field.Element, len(set.Signals))
	for i, s := range set.Signals {
		leaves[i] = SignalLeaf(h, s)
	}

	tree, err := Build(leaves, depth, h, SentinelLeaf(h))
	if err != nil {
		return nil, err
	}
	return &Commitment{
		Root:      tree.Root(),
		ActualLen: set.ActualLen,
		Depth:     depth,
		HashFunc:  h.Name(),
		tree:      tree,
	}, nil
}

// BuildReturnsCommitment commits to a daily return series. Each return is
// scaled by scale, truncated and hashed as a single-element leaf. Empty slots
// hash the zero element.
func BuildReturnsCommitment(returns []float64, scale float64, depth int, h Hasher) (*Commitment, error) {
	leaves := make([]field.Element, len(returns))
	for i, r := range returns {
		e, err := field.ScaleFloat(r, scale)
		if err != nil {
			return nil, fmt.Errorf("return %d: %w", i, err)
		}
		leaves[i] = h.Hash(e)
	}

	tree, err := Build(leaves, depth, h, h.Hash(field.Zero()))
	if err != nil {
		return nil, err
	}
	return &Commitment{
		Root:      tree.Root(),
		ActualLen: len(returns),
		Depth:     depth,
		HashFunc:  h.Name(),
		tree:      tree,
	}, nil
}
