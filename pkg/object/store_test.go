package object

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_WriteRead(t *testing.T) {
	s := NewStore(t.TempDir())

	h, err := s.Write(TypeBlob, []byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !ValidHash(h) {
		t.Fatalf("Write returned invalid hash %q", h)
	}
	if !s.Has(h) {
		t.Error("Has = false after Write")
	}

	objType, data, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if objType != TypeBlob {
		t.Errorf("Read type = %q, want %q", objType, TypeBlob)
	}
	if string(data) != "hello" {
		t.Errorf("Read data = %q, want %q", data, "hello")
	}
}

func TestStore_WriteDeduplicates(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	h1, err := s.Write(TypeBlob, []byte("same content"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	h2, err := s.Write(TypeBlob, []byte("same content"))
	if err != nil {
		t.Fatalf("Write (second): %v", err)
	}
	if h1 != h2 {
		t.Errorf("identical content produced different hashes: %s vs %s", h1, h2)
	}

	// Exactly one file on disk.
	hashes, err := s.ListHashes()
	if err != nil {
		t.Fatalf("ListHashes: %v", err)
	}
	if len(hashes) != 1 {
		t.Errorf("store holds %d objects, want 1", len(hashes))
	}
}

func TestStore_ReadMissing(t *testing.T) {
	s := NewStore(t.TempDir())

	missing := HashBytes([]byte("never stored"))
	_, _, err := s.Read(missing)
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Read(missing) = %v, want ErrObjectNotFound", err)
	}
}

func TestStore_ReadDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	h, err := s.Write(TypeBlob, []byte("precious data"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Corrupt the stored bytes without changing the key.
	path := filepath.Join(dir, "objects", string(h[:2]), string(h[2:]))
	if err := os.WriteFile(path, []byte("scribbled over"), 0o644); err != nil {
		t.Fatalf("corrupt object file: %v", err)
	}

	_, _, err = s.Read(h)
	if !errors.Is(err, ErrCorruptObject) {
		t.Errorf("Read(corrupted) = %v, want ErrCorruptObject", err)
	}
	if err := s.Verify(h); !errors.Is(err, ErrCorruptObject) {
		t.Errorf("Verify(corrupted) = %v, want ErrCorruptObject", err)
	}
}

func TestStore_VerifyAll(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	good, err := s.Write(TypeBlob, []byte("good"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	bad, err := s.Write(TypeBlob, []byte("soon bad"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, "objects", string(bad[:2]), string(bad[2:]))
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatalf("corrupt object file: %v", err)
	}

	failures, err := s.VerifyAll()
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
	if _, ok := failures[bad]; !ok {
		t.Error("VerifyAll did not flag the corrupted object")
	}
	if _, ok := failures[good]; ok {
		t.Error("VerifyAll flagged a healthy object")
	}
}

func TestStore_VerifyAllEmptyStore(t *testing.T) {
	s := NewStore(t.TempDir())
	failures, err := s.VerifyAll()
	if err != nil {
		t.Fatalf("VerifyAll on empty store: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("empty store reported %d failures", len(failures))
	}
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	h, err := s.Write(TypeBlob, []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	fanout := filepath.Join(dir, "objects", string(h[:2]))
	entries, err := os.ReadDir(fanout)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != string(h[2:]) {
			t.Errorf("unexpected file in object dir: %s", e.Name())
		}
	}
}

func TestStore_TypedRoundTrips(t *testing.T) {
	s := NewStore(t.TempDir())

	blobHash, err := s.WriteBlob(&Blob{Data: []byte("file body")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	blob, err := s.ReadBlob(blobHash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "file body" {
		t.Errorf("blob data = %q", blob.Data)
	}

	treeHash, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{
		{Name: "f", Mode: TreeModeFile, BlobHash: blobHash},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	commitHash, err := s.WriteCommit(&CommitObj{
		TreeHash:  treeHash,
		Author:    "a",
		Timestamp: 1,
		Message:   "m",
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	c, err := s.ReadCommit(commitHash)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if c.TreeHash != treeHash {
		t.Errorf("commit tree = %s, want %s", c.TreeHash, treeHash)
	}

	// Type mismatch is an error, not a misparse.
	if _, err := s.ReadCommit(blobHash); err == nil {
		t.Error("ReadCommit(blob hash) succeeded, want type mismatch error")
	}
}
