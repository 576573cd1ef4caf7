// Package utils provides small helpers shared across the service.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns n random bytes as an upper-case hexadecimal
// string.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateBookingCode returns a booking reference like "BK3F2A9C01B4D7".
// Uniqueness is enforced by the store; callers retry on collision.
func GenerateBookingCode() (string, error) {
	code, err := GenerateCode(6)
	if err != nil {
		return "", err
	}
	return "BK" + code, nil
}
