// Package cryptox provides credential encryption at rest (AES-GCM) and
// password hashing (argon2id) for the R2 Manager service.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Cipher encrypts and decrypts short strings with AES-256-GCM. The key is
// derived from an arbitrary passphrase with SHA-256, so any non-empty
// server secret works.
type Cipher struct {
	key [32]byte
}

// NewCipher derives an AES-256 key from the given secret.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}
	return &Cipher{key: sha256.Sum256([]byte(secret))}, nil
}

// EncryptString seals plaintext and returns base64(nonce || ciphertext).
// A fresh random nonce is generated for every call.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aesgcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString.
func (c *Cipher) DecryptString(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(sealed) < aesgcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:aesgcm.NonceSize()], sealed[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// Argon2Hasher hashes passwords with argon2id.
type Argon2Hasher struct{}

// Hash returns an encoded hash of the form argon2id$<salt>$<digest> with
// both parts base64-encoded.
func (Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	digest := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("argon2id$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest)), nil
}

// Verify reports whether password matches the encoded hash. Comparison is
// constant-time on the derived digest.
func (Argon2Hasher) Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(digest)))
	return subtle.ConstantTimeCompare(candidate, digest) == 1
}
