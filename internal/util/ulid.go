package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// CycleID generates a ULID for tagging one sync cycle across logs,
// status, and history rows. Lexicographic order follows start time.
func CycleID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
