package pgvault

// LogicalSize converts a physical on-disk file size (header + whole
// encrypted pages) to the logical size the host database observes. Fails
// with an IOError when the trailing payload is not a whole multiple of
// EncryptedPageSize.
func LogicalSize(physical int64) (int64, error) {
	if physical < FileHeaderSize {
		return 0, nil
	}
	payload := physical - FileHeaderSize
	if payload == 0 {
		return 0, nil
	}
	if payload%EncryptedPageSize != 0 {
		return 0, NewIOError("stat", "", "physical file size is not a whole number of encrypted pages", nil)
	}
	return (payload / EncryptedPageSize) * PageSize, nil
}

// PageCount returns the number of whole encrypted pages in a physical file
// of the given size. Assumes physical has already passed LogicalSize's
// alignment check.
func PageCount(physical int64) int64 {
	if physical < FileHeaderSize {
		return 0
	}
	return (physical - FileHeaderSize) / EncryptedPageSize
}

// PagesForLogicalSize returns the number of pages needed to hold L logical
// bytes, i.e. ceil(L / PageSize).
func PagesForLogicalSize(l int64) int64 {
	if l <= 0 {
		return 0
	}
	return (l + PageSize - 1) / PageSize
}

// PagePhysicalOffset returns the physical byte offset at which encrypted
// page pageNo begins.
func PagePhysicalOffset(pageNo int64) int64 {
	return FileHeaderSize + pageNo*EncryptedPageSize
}

// PhysicalSizeForPages returns the physical file size containing exactly
// pages whole encrypted pages (plus the header).
func PhysicalSizeForPages(pages int64) int64 {
	return FileHeaderSize + pages*EncryptedPageSize
}

// pageAndOffset splits a logical byte position into its page number and
// intra-page byte offset.
func pageAndOffset(pos int64) (pageNo int64, offset int64) {
	return pos / PageSize, pos % PageSize
}
