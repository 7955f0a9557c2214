package pgvault

import (
	"fmt"
)

// ValidateBuffer checks that buf is non-nil and at least minSize bytes.
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &ValidationError{Field: name, Message: "buffer cannot be nil"}
	}
	if minSize > 0 && len(buf) < minSize {
		return &ValidationError{
			Field:   name,
			Value:   len(buf),
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateOffset checks that a byte offset is non-negative.
func ValidateOffset(offset int64, name string) error {
	if offset < 0 {
		return &ValidationError{Field: name, Value: offset, Message: "offset cannot be negative"}
	}
	return nil
}

// ValidateIV checks that iv has the correct length for suite.
func ValidateIV(iv []byte, suite CipherSuite) error {
	if iv == nil {
		return &ValidationError{Field: "iv", Message: "iv cannot be nil"}
	}
	switch suite {
	case CipherAES256GCM, CipherChaCha20Poly1305:
	default:
		return &ValidationError{Field: "cipher", Value: suite, Message: "unsupported cipher suite for iv validation"}
	}
	if len(iv) != IVSize {
		return &ValidationError{
			Field:   "iv",
			Value:   len(iv),
			Message: fmt.Sprintf("invalid iv size: got %d bytes, expected %d bytes for %s", len(iv), IVSize, suite.String()),
		}
	}
	return nil
}

// ValidateKey checks that key is exactly expectedSize bytes.
func ValidateKey(key []byte, expectedSize int) error {
	if key == nil {
		return &ValidationError{Field: "key", Message: "key cannot be nil"}
	}
	if len(key) != expectedSize {
		return &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), expectedSize),
		}
	}
	return nil
}

// ValidatePageNumber checks that pageNo falls within [0, 2^32-1], the range
// representable by the AAD's big-endian uint32 page-number field.
func ValidatePageNumber(pageNo int64) error {
	if pageNo < 0 || pageNo > maxPageNo {
		return NewRangeError(pageNo)
	}
	return nil
}

// ValidateFilePath checks that path is non-empty.
func ValidateFilePath(path string) error {
	if path == "" {
		return &ValidationError{Field: "path", Message: "file path cannot be empty"}
	}
	return nil
}

// ValidateReadWrite checks common preconditions for Read/Write calls.
func ValidateReadWrite(buf []byte, position int64) error {
	if buf == nil {
		return &ValidationError{Field: "buffer", Message: "buffer cannot be nil"}
	}
	return ValidateOffset(position, "position")
}
