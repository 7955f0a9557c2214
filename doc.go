// Package pgvault is a page-granularity, at-rest encryption layer that sits
// between an embedded database's storage engine and a host filesystem,
// encrypting every fixed-size logical page independently before it reaches
// disk.
//
// # Overview
//
// A Vault wraps an absfs.FileSystem (the "host filesystem") and presents a
// POSIX-like operation surface of its own: Open, Read, Write, Fsync,
// Truncate, Rename, and the rest. Callers issue byte-range I/O exactly as
// they would against a plain file; the Vault maps each request onto whole
// PageSize-byte pages, encrypting or decrypting them transparently. Files
// matching a small set of plaintext-reserved name patterns (postmaster
// locks, PG_VERSION, and similar control files) pass through unencrypted.
//
// # Cipher Suites
//
//   - CipherAES256GCM (default): AES-256 in Galois/Counter Mode. Every
//     on-disk size in this package is defined against this cipher.
//   - CipherChaCha20Poly1305 (opt-in): identical IV and tag sizes, so the
//     on-disk layout is unchanged, but files are not cross-readable between
//     a Vault configured for one cipher and one configured for the other.
//
// # Basic Usage
//
//	host, _ := memfs.NewFS() // or any other absfs.FileSystem
//	v, err := pgvault.New(host, &pgvault.Config{
//		Passphrase: []byte("correct horse battery staple"),
//	})
//	if err != nil {
//		// wrong passphrase surfaces here as ErrInvalidPassphrase
//		panic(err)
//	}
//	defer v.Teardown()
//
//	fd, err := v.Open("/base/1/16384", pgvault.ORDWR|pgvault.OCREAT, 0600)
//	n, err := v.WriteAt(fd, []byte("page contents"), 0)
//	err = v.Fsync(fd)
//	err = v.Close(fd)
//
// # Security Considerations
//
// Protected against:
//   - Reading plaintext page contents from the host filesystem at rest
//   - Swapping a page between files, or between positions in the same file
//     (the AAD binds ciphertext to file_id and page number)
//   - Tampering with ciphertext or the authentication tag going undetected
//   - Opening a vault directory with the wrong passphrase (the verification
//     token rejects it before any user page is ever served)
//
// Not protected against:
//   - Memory dumps while pages are decrypted in process memory
//   - Side-channel attacks (timing, cache)
//   - Key material that outlives the process due to Go's garbage collector;
//     Teardown zeroizes key bytes on a best-effort basis only, see Zeroize
//   - Metadata leakage: file sizes, page counts, and access timing are all
//     visible to anything that can see the host filesystem
//
// # Key Derivation
//
// Passphrase-backed vaults always derive their key via PBKDF2-HMAC-SHA512
// at KDFIterations iterations, producing a 32-byte key. This is not
// configurable: two vaults opened with the same passphrase and salt always
// derive the same key. Callers that manage their own key material can
// bypass derivation entirely by supplying Config.ExternalKey.
//
// # On-Disk Layout
//
// An encrypted file on the host filesystem is laid out as:
//
//	[salt(16)][file_id(32)][enc_page_0][enc_page_1]...
//
// Each encrypted page is:
//
//	[iv(12)][tag(16)][ciphertext(8192)]
//
// for a fixed EncryptedPageSize of 8220 bytes per logical PageSize-byte
// page. The first page of every vault directory is a verification token at
// a fixed well-known path, used to detect a wrong passphrase before any
// other file is opened.
package pgvault
