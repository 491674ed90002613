package store

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

var (
	idEntropy   = ulid.Monotonic(rand.Reader, 0)
	idEntropyMu sync.Mutex
)

// NewID returns a time-ordered id for sub-documents such as mystery pots.
func NewID() string {
	idEntropyMu.Lock()
	defer idEntropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), idEntropy).String()
}
