package pgvault

import (
	"crypto/rand"
	"fmt"
)

// VaultKey wraps a derived 32-byte symmetric secret held in process memory
// for the lifetime of a Vault. Zeroize overwrites the buffer on teardown.
type VaultKey struct {
	bytes []byte
}

// newVaultKey wraps key, which must already be FileIDSize bytes.
func newVaultKey(key []byte) *VaultKey {
	return &VaultKey{bytes: key}
}

// Bytes returns the raw key material. The returned slice aliases internal
// storage; callers must not retain it past Zeroize.
func (k *VaultKey) Bytes() []byte { return k.bytes }

// Zeroize overwrites the key buffer with zeros on a best-effort basis.
// Earlier copies made by the runtime, by I/O buffers, or by the allocator
// may still remain; this reduces, but does not eliminate, the exposure
// window.
func (k *VaultKey) Zeroize() {
	Zeroize(k.bytes)
}

// RandomSalt returns SaltSize fresh bytes from the OS CSPRNG.
func RandomSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
