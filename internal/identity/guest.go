package identity

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	guestEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	guestEntropyMu sync.Mutex
)

// NewGuestToken mints an opaque guest identity token. Guests present it back
// verbatim; claim checks are plain equality on these server-minted strings.
func NewGuestToken() string {
	guestEntropyMu.Lock()
	defer guestEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), guestEntropy).String()
}
