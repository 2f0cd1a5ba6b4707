package service

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations matches the hashes already stored by earlier deployments.
	DefaultIterations = 100_000
	keyLength         = 64
	saltLength        = 16
)

// PasswordHasher derives salted PBKDF2-SHA512 keys, hex encoded.
type PasswordHasher struct {
	iterations int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{iterations: DefaultIterations}
}

// NewPasswordHasherWithIterations is meant for tests, where the default cost is too slow.
func NewPasswordHasherWithIterations(iterations int) *PasswordHasher {
	return &PasswordHasher{iterations: iterations}
}

// Hash returns the hex hash and the hex salt it was derived with.
func (h *PasswordHasher) Hash(password string) (hash, salt string, err error) {
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(raw)
	return h.derive(password, salt), salt, nil
}

func (h *PasswordHasher) Verify(password, hash, salt string) bool {
	got := h.derive(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(hash)) == 1
}

func (h *PasswordHasher) derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, keyLength, sha512.New)
	return hex.EncodeToString(key)
}
