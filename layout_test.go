package pgvault

import "testing"

// P7: physical size is always header + N whole encrypted pages.
func TestPhysicalSizeForPages_Invariant(t *testing.T) {
	for _, pages := range []int64{0, 1, 2, 100} {
		physical := PhysicalSizeForPages(pages)
		if physical != FileHeaderSize+pages*EncryptedPageSize {
			t.Fatalf("PhysicalSizeForPages(%d) = %d, want %d", pages, physical, FileHeaderSize+pages*EncryptedPageSize)
		}
		if got := PageCount(physical); got != pages {
			t.Fatalf("PageCount(%d) = %d, want %d", physical, got, pages)
		}
	}
}

// P8: fstat size formula, logical = pages * PageSize.
func TestLogicalSize_Formula(t *testing.T) {
	cases := []struct {
		physical int64
		logical  int64
	}{
		{0, 0},
		{FileHeaderSize, 0},
		{FileHeaderSize + EncryptedPageSize, PageSize},
		{FileHeaderSize + 3*EncryptedPageSize, 3 * PageSize},
	}
	for _, c := range cases {
		got, err := LogicalSize(c.physical)
		if err != nil {
			t.Fatalf("LogicalSize(%d): %v", c.physical, err)
		}
		if got != c.logical {
			t.Fatalf("LogicalSize(%d) = %d, want %d", c.physical, got, c.logical)
		}
	}
}

func TestLogicalSize_MisalignedPayloadIsIOError(t *testing.T) {
	physical := FileHeaderSize + EncryptedPageSize + 1
	_, err := LogicalSize(physical)
	if _, ok := IsIOError(err); !ok {
		t.Fatalf("expected IOError for misaligned physical size, got %v", err)
	}
}

func TestPagesForLogicalSize_Ceiling(t *testing.T) {
	cases := []struct {
		logical int64
		pages   int64
	}{
		{0, 0},
		{1, 1},
		{PageSize, 1},
		{PageSize + 1, 2},
		{3 * PageSize, 3},
	}
	for _, c := range cases {
		if got := PagesForLogicalSize(c.logical); got != c.pages {
			t.Fatalf("PagesForLogicalSize(%d) = %d, want %d", c.logical, got, c.pages)
		}
	}
}

func TestPagePhysicalOffset(t *testing.T) {
	if got := PagePhysicalOffset(0); got != FileHeaderSize {
		t.Fatalf("PagePhysicalOffset(0) = %d, want %d", got, FileHeaderSize)
	}
	if got := PagePhysicalOffset(2); got != FileHeaderSize+2*EncryptedPageSize {
		t.Fatalf("PagePhysicalOffset(2) = %d, want %d", got, FileHeaderSize+2*EncryptedPageSize)
	}
}
