package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// StableID derives a short deterministic identifier from the given parts.
// Equal inputs always produce the same id, across runs and machines.
func StableID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "||")))
	return hex.EncodeToString(sum[:])[:16]
}
