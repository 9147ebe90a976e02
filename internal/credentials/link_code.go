// Package credentials generates the short codes a student hands to a parent
// to link their accounts.
package credentials

import (
	"crypto/rand"
	"math/big"
)

// LinkCodeLength is the number of characters in a parent link code
const LinkCodeLength = 6

// linkCodeAlphabet drops 0/O and 1/I so codes survive being read aloud
const linkCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateLinkCode returns a random uppercase code of LinkCodeLength characters
func GenerateLinkCode() (string, error) {
	return randomString(linkCodeAlphabet, LinkCodeLength)
}

// IsLinkCode reports whether s could have come from GenerateLinkCode
func IsLinkCode(s string) bool {
	if len(s) != LinkCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !containsByte(linkCodeAlphabet, s[i]) {
			return false
		}
	}
	return true
}

func randomString(chars string, n int) (string, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		out[i] = chars[num.Int64()]
	}
	return string(out), nil
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
