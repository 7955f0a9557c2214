package pgvault

import (
	"github.com/absfs/absfs"
)

// ioReadEncrypted performs the page-aligned read-modify path: it reads
// whole encrypted pages covering [pos, pos+len(dst)), decrypts each, and
// copies the requested window into dst. Reads past the last written page
// stop early and return the bytes actually copied, mirroring EOF semantics
// for a plain file.
func ioReadEncrypted(base absfs.File, codec *PageCodec, fileID [FileIDSize]byte, cache *pageCache, dst []byte, pos int64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	startPage, _ := pageAndOffset(pos)
	endPage, _ := pageAndOffset(pos + int64(len(dst)) - 1)

	total := 0
	for pageNo := startPage; pageNo <= endPage; pageNo++ {
		plaintext, err := readDecryptedPage(base, codec, fileID, cache, pageNo)
		if err != nil {
			return total, err
		}
		if plaintext == nil {
			break // EOF: no more pages on disk
		}

		pageStart := pageNo * PageSize
		winLo := int64(0)
		if pos > pageStart {
			winLo = pos - pageStart
		}
		winHi := int64(PageSize)
		reqEnd := pos + int64(len(dst))
		if reqEnd < pageStart+PageSize {
			winHi = reqEnd - pageStart
		}
		if winLo >= winHi {
			continue
		}

		dstOff := pageStart + winLo - pos
		n := copy(dst[dstOff:dstOff+(winHi-winLo)], plaintext[winLo:winHi])
		total += n
		if winHi < PageSize {
			break // caller's window ended mid-page: done regardless of file length
		}
	}
	return total, nil
}

// readDecryptedPage reads and decrypts encrypted page pageNo. Returns (nil,
// nil) if the page does not exist on disk (read at or past EOF).
func readDecryptedPage(base absfs.File, codec *PageCodec, fileID [FileIDSize]byte, cache *pageCache, pageNo int64) ([]byte, error) {
	if cache != nil {
		if cached := cache.get(pageNo); cached != nil {
			return cached, nil
		}
	}

	physOffset := PagePhysicalOffset(pageNo)
	encPage := make([]byte, EncryptedPageSize)
	n, err := base.ReadAt(encPage, physOffset)
	if n == 0 {
		return nil, nil
	}
	if n != EncryptedPageSize {
		return nil, NewPageIOError("read", "", pageNo, "short encrypted page read", err)
	}

	plaintext, derr := codec.DecryptPage(encPage, pageNo, fileID[:])
	if derr != nil {
		return nil, NewPageIOError("read", "", pageNo, "decryption failed, file may be corrupt", nil)
	}
	if cache != nil {
		cache.put(pageNo, plaintext)
	}
	return plaintext, nil
}

// ioWriteEncrypted performs the page-aligned read-modify-write path: for
// each touched page it loads the existing plaintext (or a zero page if the
// page doesn't exist yet), overlays the caller's bytes, and re-encrypts
// with a freshly sampled IV.
func ioWriteEncrypted(base absfs.File, codec *PageCodec, fileID [FileIDSize]byte, cache *pageCache, src []byte, pos int64) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}

	startPage, _ := pageAndOffset(pos)
	endPage, _ := pageAndOffset(pos + int64(len(src)) - 1)

	total := 0
	for pageNo := startPage; pageNo <= endPage; pageNo++ {
		plaintext, err := readDecryptedPage(base, codec, fileID, cache, pageNo)
		if err != nil {
			return total, err
		}
		if plaintext == nil {
			plaintext = make([]byte, PageSize)
		}

		pageStart := pageNo * PageSize
		winLo := int64(0)
		if pos > pageStart {
			winLo = pos - pageStart
		}
		winHi := int64(PageSize)
		reqEnd := pos + int64(len(src))
		if reqEnd < pageStart+PageSize {
			winHi = reqEnd - pageStart
		}

		srcOff := pageStart + winLo - pos
		n := copy(plaintext[winLo:winHi], src[srcOff:srcOff+(winHi-winLo)])
		total += n

		encPage, eerr := codec.EncryptPage(plaintext, pageNo, fileID[:])
		if eerr != nil {
			return total, eerr
		}
		if _, werr := base.WriteAt(encPage, PagePhysicalOffset(pageNo)); werr != nil {
			return total, NewPageIOError("write", "", pageNo, "failed to write encrypted page", werr)
		}
		if cache != nil {
			cache.put(pageNo, plaintext)
		}
	}
	return total, nil
}

// ioTruncateEncrypted implements extend/shrink semantics for an encrypted
// file already positioned at physical size curPhysical.
func ioTruncateEncrypted(base absfs.File, codec *PageCodec, fileID [FileIDSize]byte, cache *pageCache, curPhysical, newLogical int64) error {
	curPages := PageCount(curPhysical)
	newPages := PagesForLogicalSize(newLogical)

	if newPages > curPages {
		zero := make([]byte, PageSize)
		for pageNo := curPages; pageNo < newPages; pageNo++ {
			encPage, err := codec.EncryptPage(zero, pageNo, fileID[:])
			if err != nil {
				return err
			}
			if _, err := base.WriteAt(encPage, PagePhysicalOffset(pageNo)); err != nil {
				return NewPageIOError("truncate", "", pageNo, "failed to write zero page", err)
			}
		}
		return nil
	}

	if cache != nil {
		cache.invalidateFrom(newPages)
	}
	return base.Truncate(PhysicalSizeForPages(newPages))
}
