package pgvault

import "errors"

// Fixed sizes that make up the on-disk format. These are bit-exact: changing
// any of them breaks compatibility with every file a Vault has ever written.
const (
	// PageSize is the logical page size the host database issues I/O in.
	PageSize = 8192

	// SaltSize is the length of the PBKDF2 salt.
	SaltSize = 16

	// IVSize is the AES-256-GCM / ChaCha20-Poly1305 nonce length.
	IVSize = 12

	// AuthTagSize is the AEAD authentication tag length.
	AuthTagSize = 16

	// FileIDSize is the length of the random per-file identifier.
	FileIDSize = 32

	// FileHeaderSize is the fixed header every encrypted file starts with:
	// salt (redundant, non-authoritative) followed by the file ID.
	FileHeaderSize = SaltSize + FileIDSize

	// EncryptedPageSize is the on-disk size of one encrypted page.
	EncryptedPageSize = PageSize + IVSize + AuthTagSize

	// KDFIterations is the minimum PBKDF2-HMAC-SHA512 iteration count.
	KDFIterations = 256000
)

// tokenRelativePath is the verification token's fixed location inside a
// vault directory. Its FileID is derived from this exact string.
const tokenRelativePath = ".encryption-verify"

// tokenMagic is the 16-byte prefix every verification token's plaintext page
// must start with. The remaining PageSize-len(tokenMagic) bytes are zero.
var tokenMagic = append([]byte("PGLITE_ENC"), 0, 0, 0, 0, 0, 0)

// CipherSuite selects the AEAD used by the Page Codec.
type CipherSuite uint8

const (
	// CipherAES256GCM is the default, bit-exact cipher every spec invariant
	// is defined against.
	CipherAES256GCM CipherSuite = iota
	// CipherChaCha20Poly1305 is a selectable alternative with identical
	// nonce/tag sizes. Files written under one cipher cannot be opened by a
	// Vault configured with the other.
	CipherChaCha20Poly1305
)

// String returns a human-readable cipher suite name.
func (c CipherSuite) String() string {
	switch c {
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// KeyProvider supplies the 32-byte symmetric key a Vault uses for every page
// and for the verification token.
type KeyProvider interface {
	// DeriveKey returns the key material for the given salt. Providers that
	// hold a pre-derived key (ExternalKeyProvider) ignore salt entirely.
	DeriveKey(salt []byte) ([]byte, error)
}

// Config configures a Vault. Exactly one of Passphrase or ExternalKey must
// be set.
type Config struct {
	// DataDir is an informational label for the directory the host
	// filesystem is rooted at; it is never used to join paths (the host
	// absfs.FileSystem is assumed already scoped to it).
	DataDir string

	// Passphrase derives the vault key via PBKDF2-HMAC-SHA512. Mutually
	// exclusive with ExternalKey. Arbitrary UTF-8 is accepted, including an
	// explicit empty slice ([]byte{}) — distinguished from "unset" by nilness,
	// not length: a nil Passphrase with no ExternalKey fails Validate, but
	// []byte{} is a deliberate zero-length passphrase and is accepted.
	Passphrase []byte

	// ExternalKey supplies an already-derived 32-byte key directly,
	// bypassing passphrase derivation. Mutually exclusive with Passphrase.
	ExternalKey []byte

	// Salt is consulted only alongside ExternalKey, for callers that
	// persist their own salt out of band. Ignored when Passphrase is set
	// (the salt persisted in the directory's salt file is authoritative
	// instead).
	Salt []byte

	// Cipher selects the AEAD. Zero value is CipherAES256GCM.
	Cipher CipherSuite

	// Debug is stored with the configuration but no code path reads it: it
	// adds nothing to returned errors and never changes on-disk format or
	// cryptographic behavior.
	Debug bool
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if c.Passphrase == nil && len(c.ExternalKey) == 0 {
		return errors.New("config must set either Passphrase or ExternalKey")
	}
	if c.Passphrase != nil && len(c.ExternalKey) > 0 {
		return errors.New("config cannot set both Passphrase and ExternalKey")
	}
	if len(c.ExternalKey) > 0 && len(c.ExternalKey) != FileIDSize {
		return errors.New("external key must be 32 bytes")
	}
	if c.Cipher != CipherAES256GCM && c.Cipher != CipherChaCha20Poly1305 {
		return errors.New("unsupported cipher suite")
	}
	return nil
}

func (c *Config) keyProvider() KeyProvider {
	if len(c.ExternalKey) > 0 {
		return &ExternalKeyProvider{key: c.ExternalKey}
	}
	return &PassphraseKeyProvider{passphrase: c.Passphrase}
}
