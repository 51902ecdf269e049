// Package merkle builds fixed-depth Merkle commitments over field elements.
package merkle

import (
	"crypto/sha256"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/field"
)

// Hasher compresses a sequence of field elements into one.
type Hasher interface {
	Hash(inputs ...field.Element) field.Element
	Name() string
}

// NewHasher returns the hasher registered under name.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case config.HashMiMC, "":
		return MiMC{}, nil
	case config.HashSHA256:
		return SHA256{}, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q", name)
	}
}

// MiMC is the BN254 MiMC sponge used by the proving circuit.
type MiMC struct{}

// Hash absorbs each input as one 32-byte block.
func (MiMC) Hash(inputs ...field.Element) field.Element {
	h := mimc.NewMiMC()
	for _, in := range inputs {
		b := in.Bytes()
		// canonical encodings are always below the modulus
		_, _ = h.Write(b[:])
	}
	return field.FromBytes(h.Sum(nil))
}

// Name implements Hasher.
func (MiMC) Name() string { return config.HashMiMC }

// SHA256 hashes the concatenated big-endian encodings and reduces the digest
// into the field.
type SHA256 struct{}

// Hash implements Hasher.
func (SHA256) Hash(inputs ...field.Element) field.Element {
	h := sha256.New()
	for _, in := range inputs {
		b := in.Bytes()
		h.Write(b[:])
	}
	return field.FromBytes(h.Sum(nil))
}

// Name implements Hasher.
func (SHA256) Name() string { return config.HashSHA256 }
