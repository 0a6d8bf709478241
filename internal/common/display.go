// Package common holds small helpers shared by the CLI and the services:
// display shortening of base58 strings and secret hygiene.
package common

import (
	"crypto/rand"
)

// Truncate shortens s to its first and last n characters joined by "...".
// Strings that would not get shorter are returned unchanged.
func Truncate(s string, n int) string {
	if s == "" {
		return ""
	}
	if n <= 0 || len(s) <= n*2+3 {
		return s
	}
	return s[:n] + "..." + s[len(s)-n:]
}

// WipeByteArray overwrites b with zeros. Used for passphrases and secret keys
// once they are no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateRandByteArray returns size bytes from crypto/rand. It panics if the
// system randomness source fails, which is not recoverable anyway.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
