package eventbus

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewCorrelationID mints a lexically sortable token for one request/reply round trip.
func NewCorrelationID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
