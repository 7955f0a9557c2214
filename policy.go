package pgvault

import "strings"

// isPlaintextReserved reports whether basename matches one of the
// plaintext-reserved name patterns: control files the host database must
// be able to read before any passphrase has been established, or that
// other tooling inspects directly on disk.
func isPlaintextReserved(basename string) bool {
	switch {
	case strings.HasSuffix(basename, ".conf"):
		return true
	case strings.HasSuffix(basename, ".pid"):
		return true
	case strings.Contains(basename, "PG_VERSION"):
		return true
	case strings.Contains(basename, "pg_internal.init"):
		return true
	case strings.Contains(basename, "postmaster"):
		return true
	case strings.Contains(basename, ".lock"):
		return true
	case strings.Contains(basename, "replorigin_checkpoint"):
		return true
	default:
		return false
	}
}
