package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof-of-portfolio/internal/field"
)

func elems(vals ...int64) []field.Element {
	out := make([]field.Element, len(vals))
	for i, v := range vals {
		out[i] = field.FromInt64(v)
	}
	return out
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher("mimc")
	require.NoError(t, err)
	assert.Equal(t, "mimc", h.Name())

	h, err = NewHasher("sha256")
	require.NoError(t, err)
	assert.Equal(t, "sha256", h.Name())

	_, err = NewHasher("poseidon")
	assert.Error(t, err)
}

func TestHashers_Deterministic(t *testing.T) {
	for _, h := range []Hasher{MiMC{}, SHA256{}} {
		t.Run(h.Name(), func(t *testing.T) {
			a := h.Hash(elems(1, 2, 3)...)
			b := h.Hash(elems(1, 2, 3)...)
			assert.True(t, a.Equal(b))
			assert.False(t, a.Equal(h.Hash(elems(3, 2, 1)...)))
			assert.False(t, a.IsZero())
		})
	}
}

func TestBuild_TwoLevels(t *testing.T) {
	h := SHA256{}
	leaves := elems(10, 20, 30)
	pad := field.FromInt64(99)

	tree, err := Build(leaves, 2, h, pad)
	require.NoError(t, err)

	left := h.Hash(leaves[0], leaves[1])
	right := h.Hash(leaves[2], pad)
	assert.True(t, tree.Root().Equal(h.Hash(left, right)))
	assert.Equal(t, 4, tree.Capacity())
	assert.True(t, tree.Leaf(3).Equal(pad))

	p, err := tree.Path(2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, p.Indices)
	assert.True(t, p.Elements[0].Equal(pad))
	assert.True(t, p.Elements[1].Equal(left))
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(elems(1, 2, 3), 1, MiMC{}, field.Zero())
	assert.ErrorIs(t, err, ErrTooManyLeaves)

	_, err = Build(nil, 0, MiMC{}, field.Zero())
	assert.Error(t, err)

	tree, err := Build(elems(1), 2, MiMC{}, field.Zero())
	require.NoError(t, err)
	_, err = tree.Path(4)
	assert.ErrorIs(t, err, ErrLeafIndex)
	_, err = tree.Path(-1)
	assert.ErrorIs(t, err, ErrLeafIndex)
}

func TestVerify_AllLeaves(t *testing.T) {
	h := MiMC{}
	tree, err := Build(elems(1, 2, 3, 4, 5), 3, h, field.Zero())
	require.NoError(t, err)

	for i := 0; i < tree.Capacity(); i++ {
		p, err := tree.Path(i)
		require.NoError(t, err)
		require.Len(t, p.Elements, 3)
		assert.True(t, Verify(tree.Root(), tree.Leaf(i), p, h), "leaf %d", i)
	}

	p, _ := tree.Path(1)
	assert.False(t, Verify(tree.Root(), field.FromInt64(7), p, h))

	p.Indices[0] = 0
	assert.False(t, Verify(tree.Root(), tree.Leaf(1), p, h))

	p.Indices[0] = 2
	assert.False(t, Verify(tree.Root(), tree.Leaf(1), p, h))

	assert.False(t, Verify(tree.Root(), tree.Leaf(1), Path{Elements: p.Elements}, h))
}
