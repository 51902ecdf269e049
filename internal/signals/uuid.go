package signals

import (
	"fmt"

	"github.com/google/uuid"

	"proof-of-portfolio/internal/field"
)

// SplitUUID parses a UUID (hyphenated or 32 bare hex digits) and returns the
// first and last 16 hex digits as two field elements.
func SplitUUID(s string) ([2]field.Element, error) {
	if s == "" {
		return [2]field.Element{}, fmt.Errorf("%w: empty uuid", ErrMalformedOrder)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return [2]field.Element{}, fmt.Errorf("%w: uuid %q: %v", ErrMalformedOrder, s, err)
	}
	return [2]field.Element{
		field.FromBytes(u[:8]),
		field.FromBytes(u[8:]),
	}, nil
}
