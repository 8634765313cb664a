// Package secrets provides authenticated encryption for credentials at rest.
//
// Provider tokens are never written to storage in the clear. The codec
// derives an AES-256 key from the configured passphrase with HKDF-SHA256
// and seals each value with AES-GCM under a fresh random nonce, so the
// same plaintext never produces the same ciphertext twice. Tampered or
// foreign ciphertext fails authentication on reveal.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/bobmcallan/tether/internal/models"
)

// keyInfo binds derived keys to this codec so the same passphrase used
// elsewhere yields unrelated key material.
const keyInfo = "tether/token-codec/v1"

// Codec seals and opens provider credentials with a key derived from a
// configured passphrase.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the sealing key from the passphrase and returns a
// ready codec. An empty passphrase returns models.ErrMissingKey.
func NewCodec(passphrase string) (*Codec, error) {
	if passphrase == "" {
		return nil, models.ErrMissingKey
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive codec key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Protect seals the plaintext and returns a hex-encoded ciphertext with
// the nonce prepended. Each call uses a fresh nonce.
func (c *Codec) Protect(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Reveal authenticates and decrypts a value produced by Protect. Any
// malformed, truncated, or tampered input returns models.ErrIntegrity
// without distinguishing the failure mode.
func (c *Codec) Reveal(encoded string) (string, error) {
	sealed, err := hex.DecodeString(encoded)
	if err != nil {
		return "", models.ErrIntegrity
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", models.ErrIntegrity
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", models.ErrIntegrity
	}

	return string(plaintext), nil
}
