package pgvault

import (
	"crypto/sha512"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseKeyProvider derives the vault key from a caller-supplied
// passphrase via PBKDF2-HMAC-SHA512, at a fixed iteration count. The hash
// function and iteration count are not configurable: every Vault backed by
// a passphrase derives its key identically, bit for bit.
type PassphraseKeyProvider struct {
	passphrase []byte
}

// NewPassphraseKeyProvider wraps passphrase for key derivation.
func NewPassphraseKeyProvider(passphrase []byte) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{passphrase: passphrase}
}

// DeriveKey runs PBKDF2-HMAC-SHA512 over the passphrase and salt. An empty
// passphrase is a valid, if weak, input: PBKDF2 over a zero-length password
// is well-defined, and the spec mandates accepting it rather than rejecting
// it on the provider's behalf.
func (p *PassphraseKeyProvider) DeriveKey(salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, NewValidationError("salt", len(salt), fmt.Sprintf("salt must be %d bytes", SaltSize))
	}
	return pbkdf2.Key(p.passphrase, salt, KDFIterations, FileIDSize, sha512.New), nil
}

// ExternalKeyProvider wraps an already-derived 32-byte key supplied
// directly by the caller, bypassing passphrase derivation entirely. salt is
// ignored: the key is returned as-is.
type ExternalKeyProvider struct {
	key []byte
}

// NewExternalKeyProvider wraps a pre-derived 32-byte key.
func NewExternalKeyProvider(key []byte) *ExternalKeyProvider {
	return &ExternalKeyProvider{key: key}
}

// DeriveKey returns the stored key, ignoring salt.
func (e *ExternalKeyProvider) DeriveKey(salt []byte) ([]byte, error) {
	if len(e.key) != FileIDSize {
		return nil, NewValidationError("externalKey", len(e.key), fmt.Sprintf("external key must be %d bytes", FileIDSize))
	}
	return e.key, nil
}
