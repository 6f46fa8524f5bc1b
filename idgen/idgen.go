// Package idgen generates identifiers for audit runs and records.
//
// Two families are provided: UUIDv7 identifiers, which sort by creation
// time and suit database primary keys, and short NanoID strings for
// log correlation. Prefixed wraps either with a type tag so an id is
// self-describing in logs and sink payloads (run_, page_, inst_, fnd_).
package idgen

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const nanoAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultNanoLen balances collision resistance against log readability.
const DefaultNanoLen = 12

// UUIDv7 returns a time-ordered UUID string. Falls back to UUIDv4 when
// the monotonic source fails, which only happens if crypto/rand does.
func UUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NanoID returns a random string of n characters from a URL-safe
// alphabet. n <= 0 uses DefaultNanoLen.
func NanoID(n int) string {
	if n <= 0 {
		n = DefaultNanoLen
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is unrecoverable; uuid will panic on the
		// same source, so surface it the same way.
		panic(fmt.Sprintf("idgen: rand: %v", err))
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = nanoAlphabet[int(b)%len(nanoAlphabet)]
	}
	return string(out)
}

// Prefixed returns prefix + "_" + a NanoID, e.g. "run_x8Kq0tYpB2wm".
func Prefixed(prefix string) string {
	return prefix + "_" + NanoID(DefaultNanoLen)
}

// Timestamped returns an id with an embedded UTC timestamp, useful for
// artifact filenames that should sort chronologically in a directory
// listing.
func Timestamped(prefix string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, time.Now().UTC().Format("20060102T150405"), NanoID(6))
}
