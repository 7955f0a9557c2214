package pgvault

import (
	"os"
	"path"
)

// BadPage names a single page that failed to authenticate during a
// VerifyAllPages sweep.
type BadPage struct {
	Path   string
	PageNo int64
	Err    error
}

// VerifyAllPages walks root and attempts to decrypt every page of every
// encrypted file it finds, without modifying anything. It is a read-only
// integrity sweep: useful for detecting corruption or bit rot ahead of
// time, never for repairing it. Files that are directories, plaintext-
// reserved, or part of the Vault's own metadata (the salt file, the
// verification token) are skipped.
func (v *Vault) VerifyAllPages(root string) ([]BadPage, error) {
	if v.destroyed {
		return nil, NewPosixError("verify", root, EIO, ErrDestroyed)
	}
	var bad []BadPage
	err := v.walk(root, func(p string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		base := path.Base(p)
		if isTokenPath(p) || base == saltRelativePath || isPlaintextReserved(base) {
			return nil
		}

		f, err := v.host.Open(p)
		if err != nil {
			return translateHostErr("open", p, err)
		}
		defer f.Close()

		fileID, err := readFileIDFromHeader(f)
		if err != nil {
			return err
		}
		stat, err := f.Stat()
		if err != nil {
			return translateHostErr("stat", p, err)
		}

		pages := PageCount(stat.Size())
		for pageNo := int64(0); pageNo < pages; pageNo++ {
			enc := make([]byte, EncryptedPageSize)
			n, rerr := f.ReadAt(enc, PagePhysicalOffset(pageNo))
			if n != EncryptedPageSize {
				bad = append(bad, BadPage{Path: p, PageNo: pageNo, Err: NewPageIOError("verify", p, pageNo, "short encrypted page read", rerr)})
				continue
			}
			if _, derr := v.codec.DecryptPage(enc, pageNo, fileID[:]); derr != nil {
				bad = append(bad, BadPage{Path: p, PageNo: pageNo, Err: ErrAuthFailed})
			}
		}
		return nil
	})
	return bad, err
}

func (v *Vault) walk(root string, fn func(string, os.FileInfo) error) error {
	p := v.resolvePath(root)
	info, err := v.host.Stat(p)
	if err != nil {
		return translateHostErr("stat", root, err)
	}
	return v.walkRec(p, info, fn)
}

func (v *Vault) walkRec(p string, info os.FileInfo, fn func(string, os.FileInfo) error) error {
	if err := fn(p, info); err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	dir, err := v.host.Open(p)
	if err != nil {
		return translateHostErr("open", p, err)
	}
	defer dir.Close()
	entries, err := dir.Readdir(-1)
	if err != nil {
		return translateHostErr("readdir", p, err)
	}
	for _, e := range entries {
		childPath := path.Join(p, e.Name())
		if err := v.walkRec(childPath, e, fn); err != nil {
			return err
		}
	}
	return nil
}
