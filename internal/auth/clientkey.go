package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DeriveClientKey computes the per-customer key Flat expects in room
// payloads: hex(HMAC-SHA256(secretKey, salt + ":" + email)). The email is
// lower-cased so the key does not depend on how it was typed.
func DeriveClientKey(salt, secretKey, email string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(salt + ":" + strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(mac.Sum(nil))
}
