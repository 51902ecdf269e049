package engine

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	runIDMu   sync.Mutex
	runIDMono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runIDMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewRunID returns a time-sortable run identifier for t.
func NewRunID(t time.Time) string {
	runIDMu.Lock()
	defer runIDMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), runIDMono)
	if err != nil {
		// only on clock overflow or exhausted monotonic entropy
		panic(err)
	}
	return id.String()
}
