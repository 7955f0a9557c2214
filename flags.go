package pgvault

import "os"

// Open flag constants the Facade accepts from callers, using the Linux
// POSIX numeric convention verbatim (per Open Question Q2: these must stay
// bit-compatible with the host runtime's existing convention regardless of
// the platform this package is actually compiled for).
const (
	ORDONLY = 0
	OWRONLY = 1
	ORDWR   = 2
	OCREAT  = 64
	OEXCL   = 128
	OTRUNC  = 512
	OAPPEND = 1024
)

// translateFlags maps the Linux-convention flags above onto the bits the
// Go os package (and therefore absfs.FileSystem.OpenFile) expects. This is
// an explicit table rather than a pass-through: os.O_CREATE and friends
// only happen to match the Linux raw values on a linux/amd64 build, and
// this mapping must hold regardless of the build platform.
func translateFlags(flags int) int {
	var out int
	switch flags & 0x3 {
	case OWRONLY:
		out |= os.O_WRONLY
	case ORDWR:
		out |= os.O_RDWR
	default:
		out |= os.O_RDONLY
	}
	if flags&OCREAT != 0 {
		out |= os.O_CREATE
	}
	if flags&OEXCL != 0 {
		out |= os.O_EXCL
	}
	if flags&OTRUNC != 0 {
		out |= os.O_TRUNC
	}
	if flags&OAPPEND != 0 {
		out |= os.O_APPEND
	}
	return out
}

// wantsTruncate reports whether flags request open-time truncation.
func wantsTruncate(flags int) bool {
	return flags&OTRUNC != 0
}
