package pipeline

import (
	"crypto/sha256"
	"fmt"
)

// ContentHashHex computes SHA-256 of content and returns the hex
// string. Document ids default to a prefix of this hash so re-importing
// identical content maps onto the same cached chapters.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
