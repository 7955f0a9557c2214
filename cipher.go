package pgvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherEngine is the AEAD primitive the Page Codec drives. Both
// implementations below produce a 12-byte IV and a 16-byte tag, so
// EncryptedPageSize is correct regardless of which engine a Vault uses.
type CipherEngine interface {
	// Seal encrypts plaintext under nonce and aad, returning ciphertext||tag.
	Seal(nonce, plaintext, aad []byte) ([]byte, error)

	// Open authenticates and decrypts ciphertext||tag under nonce and aad.
	// Returns ErrAuthFailed on any mismatch.
	Open(nonce, ciphertext, aad []byte) ([]byte, error)

	// NonceSize returns the IV length this engine expects.
	NonceSize() int

	// Overhead returns the authentication tag length.
	Overhead() int
}

// AESGCMEngine implements CipherEngine using AES-256-GCM, the default and
// only bit-exact-mandated cipher.
type AESGCMEngine struct {
	aead cipher.AEAD
}

// NewAESGCMEngine creates an AES-256-GCM engine from a 32-byte key.
func NewAESGCMEngine(key []byte) (*AESGCMEngine, error) {
	if len(key) != FileIDSize {
		return nil, fmt.Errorf("AES-256 requires a %d-byte key, got %d bytes", FileIDSize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMEngine{aead: aead}, nil
}

func (e *AESGCMEngine) Seal(nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}
	return e.aead.Seal(nil, nonce, plaintext, aad), nil
}

func (e *AESGCMEngine) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func (e *AESGCMEngine) NonceSize() int { return e.aead.NonceSize() }
func (e *AESGCMEngine) Overhead() int  { return e.aead.Overhead() }

// ChaCha20Poly1305Engine implements CipherEngine using ChaCha20-Poly1305, a
// selectable alternative with identical IV and tag sizes to AES-256-GCM.
// Files written under one cipher cannot be opened with the other.
type ChaCha20Poly1305Engine struct {
	aead cipher.AEAD
}

// NewChaCha20Poly1305Engine creates a ChaCha20-Poly1305 engine from a
// 32-byte key.
func NewChaCha20Poly1305Engine(key []byte) (*ChaCha20Poly1305Engine, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ChaCha20-Poly1305 requires a %d-byte key, got %d bytes",
			chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &ChaCha20Poly1305Engine{aead: aead}, nil
}

func (e *ChaCha20Poly1305Engine) Seal(nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}
	return e.aead.Seal(nil, nonce, plaintext, aad), nil
}

func (e *ChaCha20Poly1305Engine) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func (e *ChaCha20Poly1305Engine) NonceSize() int { return e.aead.NonceSize() }
func (e *ChaCha20Poly1305Engine) Overhead() int  { return e.aead.Overhead() }

// NewCipherEngine constructs the CipherEngine for the given suite and key.
func NewCipherEngine(suite CipherSuite, key []byte) (CipherEngine, error) {
	switch suite {
	case CipherAES256GCM:
		return NewAESGCMEngine(key)
	case CipherChaCha20Poly1305:
		return NewChaCha20Poly1305Engine(key)
	default:
		return nil, NewValidationError("cipher", suite, "unsupported cipher suite")
	}
}

// GenerateIV returns a fresh random IV sized for suite. Every page write
// generates a new IV; reuse of an IV under the same key is a confidentiality
// break for GCM and Poly1305 alike.
func GenerateIV(suite CipherSuite) ([]byte, error) {
	var size int
	switch suite {
	case CipherAES256GCM:
		size = IVSize
	case CipherChaCha20Poly1305:
		size = chacha20poly1305.NonceSize
	default:
		return nil, NewValidationError("cipher", suite, "unsupported cipher suite")
	}

	iv := make([]byte, size)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}
	return iv, nil
}
