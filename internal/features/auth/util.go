package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// randomSuffix returns n hex characters for disambiguating generated usernames
func randomSuffix(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "00000"[:n]
	}
	return hex.EncodeToString(buf)[:n]
}
