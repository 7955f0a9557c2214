package pgvault

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// minVirtualFD seeds the virtual-descriptor counter above the range real OS
// descriptors typically occupy, so a caller can never confuse a virtual
// descriptor for a real one.
const minVirtualFD = 1 << 20

// saltRelativePath is the fixed location of the directory's persisted salt.
// It is stored separately from the verification token (whose on-disk size
// is fixed bit-exactly at EncryptedPageSize) because deriving the vault key
// — needed to even attempt decrypting the token — requires the salt first.
const saltRelativePath = ".encryption-salt"

// Vault is the Filesystem Facade: it wraps a host absfs.FileSystem and
// presents its own POSIX-like operation surface, transparently encrypting
// every page of every file that doesn't match a plaintext-reserved name
// pattern. All state (handle table, descriptor counter, key material) is
// instance-scoped; two Vaults in one process never share any of it.
type Vault struct {
	host       absfs.FileSystem
	cfg        *Config
	key        *VaultKey
	salt       []byte
	codec      *PageCodec
	instanceID uuid.UUID

	handles map[uintptr]*fileHandle
	nextFD  uintptr
	cwd     string

	// pathCaches holds one pageCache per resolved path with at least one
	// encrypted handle open (or previously open). It is keyed by path, not
	// by handle, so that a write through one handle is visible to a
	// subsequent read through any other handle to the same path, per §5's
	// ordering guarantee: a per-handle cache alone cannot make that promise.
	pathCaches map[string]*pageCache

	destroyed bool
}

// New opens (or initializes) a Vault rooted at host. It derives or accepts
// the vault key, persists or loads the directory's salt, and verifies the
// key against the directory's verification token before returning —
// constructing a Vault with the wrong passphrase fails here, before any
// user file is ever touched.
func New(host absfs.FileSystem, cfg *Config) (*Vault, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var salt []byte
	var err error
	if len(cfg.ExternalKey) > 0 {
		salt = cfg.Salt
		if len(salt) == 0 {
			if salt, err = RandomSalt(); err != nil {
				return nil, err
			}
		}
	} else {
		if salt, err = loadOrCreateSalt(host); err != nil {
			return nil, err
		}
	}

	key, err := cfg.keyProvider().DeriveKey(salt)
	if err != nil {
		return nil, err
	}

	codec, err := NewPageCodec(cfg.Cipher, key)
	if err != nil {
		return nil, err
	}

	if err := VerifyOrCreateToken(host, codec); err != nil {
		return nil, err
	}

	return &Vault{
		host:       host,
		cfg:        cfg,
		key:        newVaultKey(key),
		salt:       salt,
		codec:      codec,
		instanceID: uuid.New(),
		handles:    make(map[uintptr]*fileHandle),
		pathCaches: make(map[string]*pageCache),
		nextFD:     minVirtualFD,
		cwd:        "/",
	}, nil
}

// cacheFor returns the shared page cache for p, creating one if this is the
// first encrypted handle ever opened against that path in this Vault.
func (v *Vault) cacheFor(p string) *pageCache {
	c, ok := v.pathCaches[p]
	if !ok {
		c = newPageCache()
		v.pathCaches[p] = c
	}
	return c
}

// resetCache discards any cached pages for p. Called whenever the file at p
// is given a new identity (created, truncated from empty, unlinked, or
// renamed) so that a stale cache can never be attributed to the wrong file.
func (v *Vault) resetCache(p string) {
	delete(v.pathCaches, p)
}

// InstanceID returns this Vault's unique identifier, assigned at
// construction and stable for its lifetime.
func (v *Vault) InstanceID() uuid.UUID { return v.instanceID }

func (v *Vault) String() string {
	return fmt.Sprintf("pgvault.Vault{id=%s, cipher=%s}", v.instanceID, v.cfg.Cipher)
}

func loadOrCreateSalt(host absfs.FileSystem) ([]byte, error) {
	if info, err := host.Stat(saltRelativePath); err == nil && info.Size() == SaltSize {
		f, err := host.Open(saltRelativePath)
		if err != nil {
			return nil, NewIOError("open", saltRelativePath, "failed to open salt file", err)
		}
		defer f.Close()
		buf := make([]byte, SaltSize)
		n, err := f.ReadAt(buf, 0)
		if n != SaltSize {
			return nil, NewIOError("read", saltRelativePath, "short salt file read", err)
		}
		return buf, nil
	}

	salt, err := RandomSalt()
	if err != nil {
		return nil, err
	}
	f, err := host.OpenFile(saltRelativePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, NewIOError("open", saltRelativePath, "failed to create salt file", err)
	}
	defer f.Close()
	if _, err := f.WriteAt(salt, 0); err != nil {
		return nil, NewIOError("write", saltRelativePath, "failed to write salt file", err)
	}
	return salt, f.Sync()
}

// Teardown zeroizes the vault key and salt on a best-effort basis, closes
// any handles still open, and marks the instance destroyed. Afterwards,
// Open, Close, Truncate, VerifyAllPages, WriteFile and every descriptor-based
// operation fail with a PosixError wrapping ErrDestroyed (EIO). The
// path-only operations (Lstat, Mkdir, Rename, Rmdir, Unlink, Utimes, Chmod,
// Chdir, Exists) do not check for teardown and still reach the host
// filesystem. Idempotent.
func (v *Vault) Teardown() error {
	if v.destroyed {
		return nil
	}
	for fd, h := range v.handles {
		h.base.Close()
		delete(v.handles, fd)
	}
	v.key.Zeroize()
	Zeroize(v.salt)
	v.destroyed = true
	return nil
}

func (v *Vault) resolvePath(name string) string {
	if !path.IsAbs(name) {
		name = path.Join(v.cwd, name)
	}
	return path.Clean(name)
}

func translateHostErr(op, p string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err):
		return NewPosixError(op, p, ENOENT, err)
	case os.IsExist(err):
		return NewPosixError(op, p, EEXIST, err)
	case os.IsPermission(err):
		return NewPosixError(op, p, EACCES, err)
	default:
		return NewPosixError(op, p, EIO, err)
	}
}

func (v *Vault) lookup(fd uintptr) (*fileHandle, error) {
	if v.destroyed {
		return nil, NewPosixError("", "", EIO, ErrDestroyed)
	}
	h, ok := v.handles[fd]
	if !ok {
		return nil, NewPosixError("", "", EBADF, nil)
	}
	return h, nil
}

// Open resolves name, applies the encryption policy, and returns a fresh
// virtual descriptor. Opening the reserved verification-token path is
// rejected: that file is owned by the Verifier, never by a caller.
func (v *Vault) Open(name string, flags int, perm os.FileMode) (uintptr, error) {
	if v.destroyed {
		return 0, NewPosixError("open", name, EIO, ErrDestroyed)
	}
	if err := ValidateFilePath(name); err != nil {
		return 0, err
	}
	p := v.resolvePath(name)
	if isTokenPath(p) {
		return 0, NewPosixError("open", name, EACCES, nil)
	}

	existed := false
	if info, err := v.host.Stat(p); err == nil {
		existed = true
		if info.IsDir() {
			base, err := v.host.Open(p)
			if err != nil {
				return 0, translateHostErr("open", name, err)
			}
			return v.registerHandle(base, p, flags, false, [FileIDSize]byte{}, true, nil), nil
		}
	}

	encrypted := !isPlaintextReserved(path.Base(p))
	base, err := v.host.OpenFile(p, translateFlags(flags), perm)
	if err != nil {
		return 0, translateHostErr("open", name, err)
	}

	var fileID [FileIDSize]byte
	if encrypted {
		if !existed || wantsTruncate(flags) {
			fileID, err = initNewEncryptedFile(base, v.salt)
			if err == nil {
				v.resetCache(p)
			}
		} else {
			fileID, err = readFileIDFromHeader(base)
		}
		if err != nil {
			base.Close()
			return 0, err
		}
	}

	var cache *pageCache
	if encrypted {
		cache = v.cacheFor(p)
	}
	return v.registerHandle(base, p, flags, encrypted, fileID, false, cache), nil
}

func (v *Vault) registerHandle(base absfs.File, p string, flags int, encrypted bool, fileID [FileIDSize]byte, isDir bool, cache *pageCache) uintptr {
	fd := v.nextFD
	v.nextFD++
	v.handles[fd] = &fileHandle{
		base:      base,
		virtualFD: fd,
		path:      p,
		flags:     flags,
		encrypted: encrypted,
		fileID:    fileID,
		isDir:     isDir,
		cache:     cache,
	}
	return fd
}

// Close releases fd. The underlying host descriptor is released regardless
// of any error from the host's Close.
func (v *Vault) Close(fd uintptr) error {
	if v.destroyed {
		return NewPosixError("close", "", EIO, ErrDestroyed)
	}
	h, ok := v.handles[fd]
	if !ok {
		return NewPosixError("close", "", EBADF, nil)
	}
	delete(v.handles, fd)
	return h.base.Close()
}

// ReadAt reads into buf at the given logical position without touching
// fd's position cursor.
func (v *Vault) ReadAt(fd uintptr, buf []byte, pos int64) (int, error) {
	h, err := v.lookup(fd)
	if err != nil {
		return 0, err
	}
	if err := ValidateReadWrite(buf, pos); err != nil {
		return 0, err
	}
	if !h.encrypted {
		return h.base.ReadAt(buf, pos)
	}
	return ioReadEncrypted(h.base, v.codec, h.fileID, h.cache, buf, pos)
}

// Read reads into buf from fd's current logical position, advancing it by
// the number of bytes read.
func (v *Vault) Read(fd uintptr, buf []byte) (int, error) {
	h, err := v.lookup(fd)
	if err != nil {
		return 0, err
	}
	n, err := v.ReadAt(fd, buf, h.position)
	h.position += int64(n)
	return n, err
}

// WriteAt writes buf at the given logical position without touching fd's
// position cursor.
func (v *Vault) WriteAt(fd uintptr, buf []byte, pos int64) (int, error) {
	h, err := v.lookup(fd)
	if err != nil {
		return 0, err
	}
	if err := ValidateReadWrite(buf, pos); err != nil {
		return 0, err
	}
	if !h.encrypted {
		return h.base.WriteAt(buf, pos)
	}
	return ioWriteEncrypted(h.base, v.codec, h.fileID, h.cache, buf, pos)
}

// Write writes buf at fd's current logical position (or at the file's
// logical end if fd was opened with OAPPEND), advancing the cursor by the
// number of bytes written.
func (v *Vault) Write(fd uintptr, buf []byte) (int, error) {
	h, err := v.lookup(fd)
	if err != nil {
		return 0, err
	}
	pos := h.position
	if h.flags&OAPPEND != 0 {
		size, err := v.logicalSizeForHandle(h)
		if err != nil {
			return 0, err
		}
		pos = size
	}
	n, err := v.WriteAt(fd, buf, pos)
	h.position = pos + int64(n)
	return n, err
}

func (v *Vault) logicalSizeForHandle(h *fileHandle) (int64, error) {
	info, err := h.base.Stat()
	if err != nil {
		return 0, translateHostErr("stat", h.path, err)
	}
	if !h.encrypted {
		return info.Size(), nil
	}
	return LogicalSize(info.Size())
}

// Fsync flushes fd's underlying host descriptor. No cryptographic work.
func (v *Vault) Fsync(fd uintptr) error {
	h, err := v.lookup(fd)
	if err != nil {
		return err
	}
	return h.base.Sync()
}

// Fdatasync is equivalent to Fsync: the host filesystem abstraction this
// package targets does not distinguish data-only flushes from full syncs.
func (v *Vault) Fdatasync(fd uintptr) error { return v.Fsync(fd) }

// Fstat reports fd's status, with Size() overridden to the logical size
// for encrypted files.
func (v *Vault) Fstat(fd uintptr) (os.FileInfo, error) {
	h, err := v.lookup(fd)
	if err != nil {
		return nil, err
	}
	info, err := h.base.Stat()
	if err != nil {
		return nil, translateHostErr("fstat", h.path, err)
	}
	if !h.encrypted {
		return info, nil
	}
	logical, err := LogicalSize(info.Size())
	if err != nil {
		return nil, err
	}
	return &vaultFileInfo{FileInfo: info, size: logical}, nil
}

// Lstat reports name's status without requiring an open handle.
func (v *Vault) Lstat(name string) (os.FileInfo, error) {
	p := v.resolvePath(name)
	info, err := v.host.Stat(p)
	if err != nil {
		return nil, translateHostErr("lstat", name, err)
	}
	if info.IsDir() || isPlaintextReserved(path.Base(p)) {
		return info, nil
	}
	logical, err := LogicalSize(info.Size())
	if err != nil {
		return nil, err
	}
	return &vaultFileInfo{FileInfo: info, size: logical}, nil
}

// Mkdir creates a directory at name.
func (v *Vault) Mkdir(name string, perm os.FileMode) error {
	p := v.resolvePath(name)
	return translateHostErr("mkdir", name, v.host.Mkdir(p, perm))
}

// Readdir returns the directory entries for an open directory handle.
func (v *Vault) Readdir(fd uintptr) ([]os.FileInfo, error) {
	h, err := v.lookup(fd)
	if err != nil {
		return nil, err
	}
	entries, err := h.base.Readdir(-1)
	if err != nil {
		return nil, translateHostErr("readdir", h.path, err)
	}
	return entries, nil
}

// Rename moves oldname to newname. The file_id of an encrypted file is
// unaffected: it is stored inside the file's header, not derived from path.
func (v *Vault) Rename(oldname, newname string) error {
	op := v.resolvePath(oldname)
	np := v.resolvePath(newname)
	err := translateHostErr("rename", oldname, v.host.Rename(op, np))
	if err == nil {
		// Both the source path's identity and any prior occupant of the
		// destination path are gone; neither page cache can be trusted.
		v.resetCache(op)
		v.resetCache(np)
	}
	return err
}

// Rmdir removes the (assumed empty) directory at name.
func (v *Vault) Rmdir(name string) error {
	p := v.resolvePath(name)
	return translateHostErr("rmdir", name, v.host.Remove(p))
}

// Truncate sets name's logical length to length, extending with
// zero-initialized pages or discarding trailing pages as needed.
func (v *Vault) Truncate(name string, length int64) error {
	if v.destroyed {
		return NewPosixError("truncate", name, EIO, ErrDestroyed)
	}
	p := v.resolvePath(name)
	if isPlaintextReserved(path.Base(p)) {
		return translateHostErr("truncate", name, v.host.Truncate(p, length))
	}

	base, err := v.host.OpenFile(p, os.O_RDWR, 0600)
	if err != nil {
		return translateHostErr("truncate", name, err)
	}
	defer base.Close()

	info, err := base.Stat()
	if err != nil {
		return translateHostErr("truncate", name, err)
	}

	var fileID [FileIDSize]byte
	curPhysical := info.Size()
	if curPhysical < FileHeaderSize {
		if fileID, err = initNewEncryptedFile(base, v.salt); err != nil {
			return err
		}
		curPhysical = FileHeaderSize
		v.resetCache(p)
	} else {
		if fileID, err = readFileIDFromHeader(base); err != nil {
			return err
		}
	}

	return ioTruncateEncrypted(base, v.codec, fileID, v.cacheFor(p), curPhysical, length)
}

// Unlink removes name.
func (v *Vault) Unlink(name string) error {
	p := v.resolvePath(name)
	err := translateHostErr("unlink", name, v.host.Remove(p))
	if err == nil {
		v.resetCache(p)
	}
	return err
}

// Utimes sets name's access and modification times.
func (v *Vault) Utimes(name string, atime, mtime time.Time) error {
	p := v.resolvePath(name)
	return translateHostErr("utimes", name, v.host.Chtimes(p, atime, mtime))
}

// Chmod sets name's permission bits.
func (v *Vault) Chmod(name string, mode os.FileMode) error {
	p := v.resolvePath(name)
	return translateHostErr("chmod", name, v.host.Chmod(p, mode))
}

// Chdir sets the per-instance current directory future relative paths
// resolve against.
func (v *Vault) Chdir(name string) error {
	p := v.resolvePath(name)
	info, err := v.host.Stat(p)
	if err != nil {
		return translateHostErr("chdir", name, err)
	}
	if !info.IsDir() {
		return NewPosixError("chdir", name, ENOTDIR, nil)
	}
	v.cwd = p
	return nil
}

// WriteFile is a convenience wrapper: create-or-truncate name, write data,
// close.
func (v *Vault) WriteFile(name string, data []byte, perm os.FileMode) error {
	fd, err := v.Open(name, OWRONLY|OCREAT|OTRUNC, perm)
	if err != nil {
		return err
	}
	defer v.Close(fd)
	_, err = v.Write(fd, data)
	return err
}

// Exists reports whether name exists on the host filesystem.
func (v *Vault) Exists(name string) bool {
	p := v.resolvePath(name)
	_, err := v.host.Stat(p)
	return err == nil
}

// Fcntl is a no-op stub: the core performs no locking or descriptor-control
// work of its own, consistent with the single-threaded, lock-free
// concurrency model.
func (v *Vault) Fcntl(fd uintptr, cmd, arg int) (int, error) {
	if _, err := v.lookup(fd); err != nil {
		return 0, err
	}
	return 0, nil
}

// Flock is a no-op stub; see Fcntl.
func (v *Vault) Flock(fd uintptr, how int) error {
	_, err := v.lookup(fd)
	return err
}
