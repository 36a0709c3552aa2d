package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength   = 16
	keyLength    = 32
	pbkdf2Rounds = 100000
)

// HashPassword derives a storable hash from a plaintext password using
// PBKDF2-SHA256 with a fresh random salt. Both outputs are standard base64.
func HashPassword(password string) (hash string, salt string, err error) {
	saltBytes := make([]byte, saltLength)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hashBytes := pbkdf2.Key([]byte(password), saltBytes, pbkdf2Rounds, keyLength, sha256.New)

	return base64.StdEncoding.EncodeToString(hashBytes),
		base64.StdEncoding.EncodeToString(saltBytes),
		nil
}

// VerifyPassword re-derives the hash with the stored salt and compares it to
// the stored hash in constant time. Malformed stored values yield false, not
// an error.
func VerifyPassword(password, storedHash, storedSalt string) bool {
	saltBytes, err := base64.StdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil {
		return false
	}

	computed := pbkdf2.Key([]byte(password), saltBytes, pbkdf2Rounds, keyLength, sha256.New)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
