package pgvault

import (
	"bytes"
	"os"

	"github.com/absfs/absfs"
)

// tokenFileID is the verification token's fixed, well-known file
// identifier, derived once at init from its fixed relative path.
var tokenFileID = FileIDFromPath(tokenRelativePath)

// VerifyOrCreateToken implements the key-verification half-open: if the
// directory has no token yet, it creates one encrypted under codec's key;
// if a token already exists, it must decrypt and match the magic constant
// under codec's key or the whole call fails with ErrInvalidPassphrase. The
// token path is owned by this function and must never be exposed to
// callers as an ordinary user file.
func VerifyOrCreateToken(host absfs.FileSystem, codec *PageCodec) error {
	info, statErr := host.Stat(tokenRelativePath)
	if statErr != nil {
		return createToken(host, codec)
	}
	if info.Size() != EncryptedPageSize {
		return ErrInvalidPassphrase
	}
	return verifyToken(host, codec)
}

func createToken(host absfs.FileSystem, codec *PageCodec) error {
	plaintext := make([]byte, PageSize)
	copy(plaintext, tokenMagic)

	encPage, err := codec.EncryptPage(plaintext, 0, tokenFileID[:])
	if err != nil {
		return err
	}

	f, err := host.OpenFile(tokenRelativePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return NewIOError("open", tokenRelativePath, "failed to create verification token", err)
	}
	defer f.Close()

	if _, err := f.WriteAt(encPage, 0); err != nil {
		return NewIOError("write", tokenRelativePath, "failed to write verification token", err)
	}
	return f.Sync()
}

func verifyToken(host absfs.FileSystem, codec *PageCodec) error {
	f, err := host.Open(tokenRelativePath)
	if err != nil {
		return ErrInvalidPassphrase
	}
	defer f.Close()

	buf := make([]byte, EncryptedPageSize)
	n, err := f.ReadAt(buf, 0)
	if n != EncryptedPageSize {
		return ErrInvalidPassphrase
	}
	_ = err // a short read was already caught above; trailing EOF on an exact read is not an error

	plaintext, derr := codec.DecryptPage(buf, 0, tokenFileID[:])
	if derr != nil {
		return ErrInvalidPassphrase
	}
	if !bytes.Equal(plaintext[:len(tokenMagic)], tokenMagic) {
		return ErrInvalidPassphrase
	}
	return nil
}

// isTokenPath reports whether relativePath is the verification token's
// reserved path, which the Facade must never expose as a normal file.
func isTokenPath(relativePath string) bool {
	return relativePath == tokenRelativePath || relativePath == "/"+tokenRelativePath
}
