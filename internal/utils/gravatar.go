package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Gravatar returns the avatar URL derived from an email address. The
// email is lowercased and trimmed before hashing so the same account
// always maps to the same image. The value is computed on demand and
// never stored.
func Gravatar(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200"
}
