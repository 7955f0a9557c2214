package pgvault

import (
	"os"
	"testing"
)

func TestTranslateFlags(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{ORDONLY, os.O_RDONLY},
		{OWRONLY, os.O_WRONLY},
		{ORDWR, os.O_RDWR},
		{OWRONLY | OCREAT, os.O_WRONLY | os.O_CREATE},
		{OWRONLY | OCREAT | OEXCL, os.O_WRONLY | os.O_CREATE | os.O_EXCL},
		{ORDWR | OTRUNC, os.O_RDWR | os.O_TRUNC},
		{OWRONLY | OAPPEND, os.O_WRONLY | os.O_APPEND},
	}
	for _, c := range cases {
		if got := translateFlags(c.in); got != c.want {
			t.Errorf("translateFlags(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestIsPlaintextReserved(t *testing.T) {
	reserved := []string{
		"postgresql.conf",
		"postmaster.pid",
		"PG_VERSION",
		"pg_internal.init",
		"postmaster.opts",
		"somefile.lock",
		"replorigin_checkpoint",
	}
	for _, name := range reserved {
		if !isPlaintextReserved(name) {
			t.Errorf("isPlaintextReserved(%q) = false, want true", name)
		}
	}

	notReserved := []string{"base/1/1259", "pg_wal/000000010000000000000001", "data.bin"}
	for _, name := range notReserved {
		if isPlaintextReserved(name) {
			t.Errorf("isPlaintextReserved(%q) = true, want false", name)
		}
	}
}

func newTestVault(t *testing.T, passphrase string) *Vault {
	t.Helper()
	host := newMemFS(t)
	v, err := New(host, &Config{Passphrase: []byte(passphrase)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

// S7: plaintext-reserved names are written verbatim, no header.
func TestVault_SeedScenario7_PlaintextReservedFile(t *testing.T) {
	v := newTestVault(t, "test-passphrase")
	defer v.Teardown()

	content := []byte("port = 5432\n")
	if err := v.WriteFile("/postgresql.conf", content, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := v.Lstat("/postgresql.conf")
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	if info.Size() != int64(len(content)) {
		t.Fatalf("size = %d, want %d (no header/page overhead for reserved files)", info.Size(), len(content))
	}
}

func TestVault_EncryptedRoundTrip(t *testing.T) {
	v := newTestVault(t, "test-passphrase")
	defer v.Teardown()

	content := []byte("select 1;")
	if err := v.WriteFile("/data", content, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fd, err := v.Open("/data", ORDONLY, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer v.Close(fd)

	buf := make([]byte, len(content))
	n, err := v.Read(fd, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(content) || string(buf) != string(content) {
		t.Fatalf("read back %q, want %q", buf[:n], content)
	}
}

func TestVault_RenamePreservesFileID(t *testing.T) {
	v := newTestVault(t, "test-passphrase")
	defer v.Teardown()

	if err := v.WriteFile("/old", []byte("payload"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fd, err := v.Open("/old", ORDONLY, 0)
	if err != nil {
		t.Fatalf("Open before rename: %v", err)
	}
	h, err := v.lookup(fd)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	beforeID := h.fileID
	v.Close(fd)

	if err := v.Rename("/old", "/new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	fd2, err := v.Open("/new", ORDONLY, 0)
	if err != nil {
		t.Fatalf("Open after rename: %v", err)
	}
	defer v.Close(fd2)
	h2, err := v.lookup(fd2)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if h2.fileID != beforeID {
		t.Fatalf("file_id changed across rename: before=%x after=%x", beforeID, h2.fileID)
	}
}

func TestVault_UnlinkMakesFileNonExistent(t *testing.T) {
	v := newTestVault(t, "test-passphrase")
	defer v.Teardown()

	if err := v.WriteFile("/gone", []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !v.Exists("/gone") {
		t.Fatalf("file should exist before unlink")
	}
	if err := v.Unlink("/gone"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if v.Exists("/gone") {
		t.Fatalf("file should not exist after unlink")
	}
}

// A write through one handle must be visible to a subsequent read through a
// different handle to the same path, even when the reading handle already
// cached the page it's about to re-read.
func TestVault_WriteVisibleAcrossHandlesToSamePath(t *testing.T) {
	v := newTestVault(t, "test-passphrase")
	defer v.Teardown()

	original := make([]byte, PageSize)
	for i := range original {
		original[i] = 0x11
	}
	if err := v.WriteFile("/shared", original, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fd1, err := v.Open("/shared", ORDONLY, 0)
	if err != nil {
		t.Fatalf("Open fd1: %v", err)
	}
	defer v.Close(fd1)

	// Prime fd1's view of page 0.
	primed := make([]byte, PageSize)
	if _, err := v.Read(fd1, primed); err != nil {
		t.Fatalf("priming read via fd1: %v", err)
	}
	for _, b := range primed {
		if b != 0x11 {
			t.Fatalf("primed read = %#x, want 0x11", b)
		}
	}

	fd2, err := v.Open("/shared", ORDWR, 0)
	if err != nil {
		t.Fatalf("Open fd2: %v", err)
	}
	updated := make([]byte, PageSize)
	for i := range updated {
		updated[i] = 0x22
	}
	if _, err := v.WriteAt(fd2, updated, 0); err != nil {
		t.Fatalf("write via fd2: %v", err)
	}
	if err := v.Close(fd2); err != nil {
		t.Fatalf("Close fd2: %v", err)
	}

	got := make([]byte, PageSize)
	if _, err := v.ReadAt(fd1, got, 0); err != nil {
		t.Fatalf("read via fd1 after fd2 write: %v", err)
	}
	for i, b := range got {
		if b != 0x22 {
			t.Fatalf("byte %d via fd1 after fd2's write = %#x, want 0x22 (stale cache)", i, b)
		}
	}
}
