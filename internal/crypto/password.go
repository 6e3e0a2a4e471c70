// Package crypto turns plaintext passwords into storage-safe encodings
// and verifies them without leaking which check failed.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters: 1 pass, 64MB memory, 4 threads, 32-byte key.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLen       = 32
	saltLen      = 16

	// encoded form is hex(key) + separator + hex(salt)
	separator = "."
)

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLen)
}

// HashPassword derives a key from the password with a fresh random salt
// and returns the encoded form. Two calls with the same password yield
// different encodings.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	_, err := rand.Read(salt)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(password, salt)
	return hex.EncodeToString(key) + separator + hex.EncodeToString(salt), nil
}

// VerifyPassword re-derives the key with the stored salt and compares in
// constant time. A malformed encoding is reported as a mismatch, never an
// error, so callers cannot distinguish the failure modes.
func VerifyPassword(password, encoded string) bool {
	keyHex, saltHex, ok := strings.Cut(encoded, separator)
	if !ok {
		return false
	}

	storedKey, err := hex.DecodeString(keyHex)
	if err != nil || len(storedKey) != keyLen {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}

	key := deriveKey(password, salt)
	return subtle.ConstantTimeCompare(key, storedKey) == 1
}
