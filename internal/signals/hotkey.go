package signals

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"proof-of-portfolio/internal/field"
)

// ErrInvalidHotkey is returned for hotkeys that are not valid SS58 addresses.
var ErrInvalidHotkey = errors.New("invalid hotkey")

const (
	ss58PublicKeyLen = 32
	ss58ChecksumLen  = 2
)

var ss58Prefix = []byte("SS58PRE")

// DecodeHotkey decodes an SS58 address and returns its 32-byte public key.
// Single-byte network prefixes are supported.
func DecodeHotkey(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHotkey, err)
	}
	if len(raw) != 1+ss58PublicKeyLen+ss58ChecksumLen {
		return nil, fmt.Errorf("%w: decoded length %d", ErrInvalidHotkey, len(raw))
	}
	if raw[0] >= 64 {
		return nil, fmt.Errorf("%w: unsupported network prefix %d", ErrInvalidHotkey, raw[0])
	}

	body := raw[:1+ss58PublicKeyLen]
	sum := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), body...))
	if !bytes.Equal(sum[:ss58ChecksumLen], raw[1+ss58PublicKeyLen:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidHotkey)
	}
	return append([]byte{}, raw[1:1+ss58PublicKeyLen]...), nil
}

// EncodeHotkey is the inverse of DecodeHotkey.
func EncodeHotkey(prefix byte, publicKey []byte) (string, error) {
	if len(publicKey) != ss58PublicKeyLen || prefix >= 64 {
		return "", fmt.Errorf("%w: bad key length %d or prefix %d", ErrInvalidHotkey, len(publicKey), prefix)
	}
	body := append([]byte{prefix}, publicKey...)
	sum := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), body...))
	return base58.Encode(append(body, sum[:ss58ChecksumLen]...)), nil
}

// HotkeyFields splits the hotkey's public key into two 16-byte halves.
func HotkeyFields(address string) ([2]field.Element, error) {
	pk, err := DecodeHotkey(address)
	if err != nil {
		return [2]field.Element{}, err
	}
	return [2]field.Element{
		field.FromBytes(pk[:16]),
		field.FromBytes(pk[16:]),
	}, nil
}
