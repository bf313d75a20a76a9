package blobstore

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return store
}

// pngHeader is enough of a PNG for content sniffing to identify it.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestStore_SaveAndOpen_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	content := append(append([]byte{}, pngHeader...), []byte("pixel data")...)
	storedName, err := store.Save("cat.png", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !strings.HasSuffix(storedName, "-cat.png") {
		t.Errorf("stored name %q does not end in -cat.png", storedName)
	}

	reader, contentType, err := store.Open(storedName)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer func() { _ = reader.Close() }()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("blob content mismatch: got %d bytes, want %d bytes", len(got), len(content))
	}
	if contentType != "image/png" {
		t.Errorf("expected content type image/png, got %q", contentType)
	}
}

func readBlob(t *testing.T, store *Store, storedName string) []byte {
	t.Helper()

	reader, _, err := store.Open(storedName)
	if err != nil {
		t.Fatalf("Open(%q) error: %v", storedName, err)
	}
	defer func() { _ = reader.Close() }()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll(%q) error: %v", storedName, err)
	}
	return got
}

func TestStore_Save_SameNameSameMillisecond(t *testing.T) {
	store := newTestStore(t)
	// Pin the clock so every save lands in the same millisecond
	fixed := time.UnixMilli(1710000000000)
	store.now = func() time.Time { return fixed }

	first, err := store.Save("cat.png", bytes.NewReader([]byte("one")))
	if err != nil {
		t.Fatalf("Save #1 error: %v", err)
	}
	second, err := store.Save("cat.png", bytes.NewReader([]byte("two")))
	if err != nil {
		t.Fatalf("Save #2 error: %v", err)
	}
	third, err := store.Save("cat.png", bytes.NewReader([]byte("three")))
	if err != nil {
		t.Fatalf("Save #3 error: %v", err)
	}

	if first == second || first == third || second == third {
		t.Fatalf("expected distinct stored names, got %q, %q, %q", first, second, third)
	}
	if got := readBlob(t, store, first); string(got) != "one" {
		t.Errorf("first blob content = %q; expected %q", got, "one")
	}
	if got := readBlob(t, store, second); string(got) != "two" {
		t.Errorf("second blob content = %q; expected %q", got, "two")
	}
	if got := readBlob(t, store, third); string(got) != "three" {
		t.Errorf("third blob content = %q; expected %q", got, "three")
	}
}

func TestStore_Save_StripsPathComponents(t *testing.T) {
	store := newTestStore(t)

	storedName, err := store.Save("../../etc/passwd", bytes.NewReader([]byte("nope")))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if strings.ContainsAny(storedName, "/\\") {
		t.Errorf("stored name %q contains path separators", storedName)
	}
	if !strings.HasSuffix(storedName, "-passwd") {
		t.Errorf("stored name %q should keep only the base name", storedName)
	}
}

func TestStore_Open_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Open("1710000000000-missing.png")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open(missing) error = %v; expected ErrNotFound", err)
	}
}

func TestStore_Open_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Open("../secret.txt")
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Open(traversal) error = %v; expected ErrInvalidName", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	storedName, err := store.Save("gone.png", bytes.NewReader([]byte("bye")))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if err := store.Delete(storedName); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, _, err := store.Open(storedName); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open(deleted) error = %v; expected ErrNotFound", err)
	}
	if err := store.Delete(storedName); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete(deleted) error = %v; expected ErrNotFound", err)
	}
}

func TestStore_Save_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	if _, err := store.Save("ok.png", bytes.NewReader([]byte("data"))); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), tempPrefix) {
			t.Errorf("temp file %q left behind", filepath.Join(dir, entry.Name()))
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 file in store dir, got %d", len(entries))
	}
}
