package pgvault

import (
	"crypto/rand"
	"fmt"

	"github.com/absfs/absfs"
)

// fileHandle is the per-open-file state the Facade hands out a virtual
// descriptor for. For directory opens, base is non-nil but never read or
// written page-wise; encrypted is always false for directories.
type fileHandle struct {
	base      absfs.File
	virtualFD uintptr
	path      string // absolute, as seen by the host filesystem
	flags     int    // Linux-convention flags, pre-translation
	position  int64  // logical position
	encrypted bool
	fileID    [FileIDSize]byte
	isDir     bool
	cache     *pageCache
}

// initNewEncryptedFile writes a fresh FileHeaderSize-byte header (salt ∥
// random file_id) to an empty, newly created encrypted file and returns the
// file_id now in effect.
func initNewEncryptedFile(base absfs.File, salt []byte) ([FileIDSize]byte, error) {
	var fileID [FileIDSize]byte
	if _, err := rand.Read(fileID[:]); err != nil {
		return fileID, fmt.Errorf("failed to generate file_id: %w", err)
	}

	header := make([]byte, 0, FileHeaderSize)
	header = append(header, salt...)
	header = append(header, fileID[:]...)

	if _, err := base.WriteAt(header, 0); err != nil {
		return fileID, NewIOError("open", "", "failed to write file header", err)
	}
	return fileID, nil
}

// readFileIDFromHeader reads the file_id of an existing encrypted file from
// header offset SaltSize.
func readFileIDFromHeader(base absfs.File) ([FileIDSize]byte, error) {
	var fileID [FileIDSize]byte
	header := make([]byte, FileHeaderSize)
	n, err := base.ReadAt(header, 0)
	if err != nil && n < FileHeaderSize {
		return fileID, NewIOError("open", "", "failed to read file header", err)
	}
	copy(fileID[:], header[SaltSize:FileHeaderSize])
	return fileID, nil
}
