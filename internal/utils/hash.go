package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the hex-encoded SHA-256 digest of a string.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// HashDocument digests a page's title and body together, so a title-only
// change still invalidates the stored hash and gets pushed on a force run.
// The NUL separator keeps ("ab", "c") distinct from ("a", "bc").
func HashDocument(title, body string) string {
	return HashContent(title + "\x00" + body)
}
