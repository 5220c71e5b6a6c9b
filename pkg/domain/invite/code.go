package invite

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I/L) so
// codes survive being read aloud or typed from paper.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 8

// GenerateCode produces a fresh human-enterable invite code of the form
// XXXX-XXXX.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	out := make([]byte, 0, codeLength+1)
	for i, b := range buf {
		if i == codeLength/2 {
			out = append(out, '-')
		}
		out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return string(out), nil
}
