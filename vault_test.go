package pgvault

import (
	"testing"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
)

func newMemFS(t *testing.T) absfs.FileSystem {
	t.Helper()
	fs, err := memfs.NewFS()
	if err != nil {
		t.Fatalf("memfs.NewFS: %v", err)
	}
	return fs
}

// S1
func TestVault_SeedScenario1(t *testing.T) {
	host := newMemFS(t)
	v, err := New(host, &Config{Passphrase: []byte("test-passphrase")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer v.Teardown()

	content := make([]byte, PageSize)
	for i := range content {
		content[i] = 0x42
	}
	if err := v.WriteFile("/file", content, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fd, err := v.Open("/file", ORDONLY, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer v.Close(fd)

	got := make([]byte, PageSize)
	if _, err := v.Read(fd, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, b := range got {
		if b != 0x42 {
			t.Fatalf("byte %d = %#x, want 0x42", i, b)
		}
	}
}

func TestVault_InstanceIDsAreDistinct(t *testing.T) {
	v1, err := New(newMemFS(t), &Config{Passphrase: []byte("p1")})
	if err != nil {
		t.Fatalf("New v1: %v", err)
	}
	defer v1.Teardown()

	v2, err := New(newMemFS(t), &Config{Passphrase: []byte("p2")})
	if err != nil {
		t.Fatalf("New v2: %v", err)
	}
	defer v2.Teardown()

	if v1.InstanceID() == v2.InstanceID() {
		t.Fatalf("two independent Vaults produced the same InstanceID")
	}
}

func TestVault_TeardownIsIdempotent(t *testing.T) {
	v, err := New(newMemFS(t), &Config{Passphrase: []byte("test-passphrase")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.Teardown(); err != nil {
		t.Fatalf("first Teardown: %v", err)
	}
	if err := v.Teardown(); err != nil {
		t.Fatalf("second Teardown: %v", err)
	}
}

func TestVault_OperationsFailAfterTeardown(t *testing.T) {
	v, err := New(newMemFS(t), &Config{Passphrase: []byte("test-passphrase")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}

	_, err = v.Open("/anything", OWRONLY|OCREAT, 0600)
	posixErr, ok := IsPosixError(err)
	if !ok {
		t.Fatalf("Open after Teardown = %v, want a PosixError", err)
	}
	if posixErr.Code != EIO {
		t.Fatalf("Open after Teardown code = %v, want EIO", posixErr.Code)
	}
	if !IsDestroyed(err) {
		t.Fatalf("Open after Teardown should wrap ErrDestroyed, got %v", err)
	}

	err = v.Truncate("/anything", 0)
	posixErr, ok = IsPosixError(err)
	if !ok {
		t.Fatalf("Truncate after Teardown = %v, want a PosixError", err)
	}
	if posixErr.Code != EIO {
		t.Fatalf("Truncate after Teardown code = %v, want EIO", posixErr.Code)
	}
	if !IsDestroyed(err) {
		t.Fatalf("Truncate after Teardown should wrap ErrDestroyed, got %v", err)
	}
}

func TestVault_ExternalKeyProvider(t *testing.T) {
	key := make([]byte, FileIDSize)
	for i := range key {
		key[i] = byte(i)
	}
	v, err := New(newMemFS(t), &Config{ExternalKey: key})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer v.Teardown()

	if err := v.WriteFile("/f", []byte("data"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !v.Exists("/f") {
		t.Fatalf("file should exist")
	}
}

func TestVault_ReopenSamePassphraseSucceeds(t *testing.T) {
	host := newMemFS(t)
	v1, err := New(host, &Config{Passphrase: []byte("correct-horse")})
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	if err := v1.WriteFile("/f", []byte("hello"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	v1.Teardown()

	v2, err := New(host, &Config{Passphrase: []byte("correct-horse")})
	if err != nil {
		t.Fatalf("second New with same passphrase: %v", err)
	}
	defer v2.Teardown()

	fd, err := v2.Open("/f", ORDONLY, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer v2.Close(fd)
	buf := make([]byte, 5)
	if _, err := v2.Read(fd, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("got %q, want %q", buf, "hello")
	}
}
