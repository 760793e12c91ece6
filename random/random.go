// Package random produces alphanumeric strings for identifiers that are shown
// to people, such as certificate numbers, and for oauth state.
package random

import (
	"crypto/rand"
	"fmt"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Bytes at or above this bound would favour the first characters of charset.
const unbiased = 256 - 256%len(charset)

// StringSecure draws length characters from crypto/rand.
func StringSecure(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= unbiased {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// IsAlphanumeric reports whether s only holds characters StringSecure can
// produce.
func IsAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z') {
			return false
		}
	}
	return true
}
