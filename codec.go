package pgvault

import (
	"crypto/sha256"
	"encoding/binary"
)

// PageCodec encrypts and decrypts individual logical pages under a single
// CipherEngine. It is a pure function layer: it holds no mutable state and
// performs no I/O.
type PageCodec struct {
	suite  CipherSuite
	engine CipherEngine
}

// NewPageCodec builds a PageCodec for suite using key (32 bytes).
func NewPageCodec(suite CipherSuite, key []byte) (*PageCodec, error) {
	if err := ValidateKey(key, FileIDSize); err != nil {
		return nil, err
	}
	engine, err := NewCipherEngine(suite, key)
	if err != nil {
		return nil, err
	}
	return &PageCodec{suite: suite, engine: engine}, nil
}

// pageAAD builds the additional authenticated data binding a page's
// ciphertext to its file and position: file_id ∥ big-endian-uint32(page_no).
func pageAAD(fileID []byte, pageNo int64) []byte {
	aad := make([]byte, len(fileID)+4)
	copy(aad, fileID)
	binary.BigEndian.PutUint32(aad[len(fileID):], uint32(pageNo))
	return aad
}

// EncryptPage seals plaintext (zero-padded to PageSize if shorter) into an
// EncryptedPageSize-byte page bound to fileID and pageNo via AAD. On-disk
// layout is iv(12) ∥ tag(16) ∥ ciphertext(8192).
func (c *PageCodec) EncryptPage(plaintext []byte, pageNo int64, fileID []byte) ([]byte, error) {
	if err := ValidatePageNumber(pageNo); err != nil {
		return nil, err
	}
	if err := ValidateBuffer(plaintext, "plaintext", 0); err != nil {
		return nil, err
	}
	if len(plaintext) > PageSize {
		return nil, NewValidationError("plaintext", len(plaintext), "plaintext exceeds PageSize")
	}

	padded := make([]byte, PageSize)
	copy(padded, plaintext)

	iv, err := GenerateIV(c.suite)
	if err != nil {
		return nil, err
	}
	if err := ValidateIV(iv, c.suite); err != nil {
		return nil, err
	}

	aad := pageAAD(fileID, pageNo)
	sealed, err := c.engine.Seal(iv, padded, aad) // ciphertext||tag
	if err != nil {
		return nil, err
	}
	ct := sealed[:len(sealed)-AuthTagSize]
	tag := sealed[len(sealed)-AuthTagSize:]

	out := make([]byte, 0, EncryptedPageSize)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

// DecryptPage authenticates and opens an EncryptedPageSize-byte page,
// returning its PageSize-byte plaintext.
func (c *PageCodec) DecryptPage(encryptedPage []byte, pageNo int64, fileID []byte) ([]byte, error) {
	if err := ValidatePageNumber(pageNo); err != nil {
		return nil, err
	}
	if err := ValidateBuffer(encryptedPage, "encryptedPage", EncryptedPageSize); err != nil {
		return nil, err
	}
	if len(encryptedPage) != EncryptedPageSize {
		return nil, NewValidationError("encryptedPage", len(encryptedPage), "encrypted page must be EncryptedPageSize bytes")
	}

	iv := encryptedPage[:IVSize]
	tag := encryptedPage[IVSize : IVSize+AuthTagSize]
	ct := encryptedPage[IVSize+AuthTagSize:]

	combined := make([]byte, 0, len(ct)+len(tag))
	combined = append(combined, ct...)
	combined = append(combined, tag...) // stdlib AEAD expects ciphertext||tag

	aad := pageAAD(fileID, pageNo)
	plaintext, err := c.engine.Open(iv, combined, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// FileIDFromPath deterministically derives a 32-byte file identifier from a
// relative path string. Used only for the verification token's fixed,
// well-known path; user files always get a random file_id instead.
func FileIDFromPath(relativePath string) [FileIDSize]byte {
	return sha256.Sum256([]byte(relativePath))
}
