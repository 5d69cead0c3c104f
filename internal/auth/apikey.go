package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters for API key hashing, matching the teacher's
// internal/auth password-hashing tuning (time=1, memory=64MB, threads=4).
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// KeyService hashes and verifies raw API keys so only a salted digest is
// ever persisted, never the key itself.
type KeyService struct{}

func NewKeyService() *KeyService { return &KeyService{} }

// Hash returns a salt and digest for rawKey, both base64-encoded.
func (k *KeyService) Hash(rawKey string) (salt, digest string, err error) {
	saltBytes := make([]byte, saltLen)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", err
	}
	hash := argon2.IDKey([]byte(rawKey), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.RawStdEncoding.EncodeToString(saltBytes), base64.RawStdEncoding.EncodeToString(hash), nil
}

// Verify reports whether rawKey matches the salt/digest pair from Hash, in
// constant time.
func (k *KeyService) Verify(rawKey, salt, digest string) (bool, error) {
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return false, errors.New("invalid salt encoding")
	}
	want, err := base64.RawStdEncoding.DecodeString(digest)
	if err != nil {
		return false, errors.New("invalid digest encoding")
	}
	got := argon2.IDKey([]byte(rawKey), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
