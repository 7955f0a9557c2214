package pgvault

import "os"

// vaultFileInfo overrides Size() to report an encrypted file's logical size
// instead of its physical on-disk size; every other field passes through
// from the host filesystem's os.FileInfo.
type vaultFileInfo struct {
	os.FileInfo
	size int64
}

func (i *vaultFileInfo) Size() int64 { return i.size }
