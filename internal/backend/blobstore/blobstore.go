package blobstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// sniffLen is the number of leading bytes http.DetectContentType inspects.
	sniffLen = 512

	tempPrefix = ".upload-"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidName = errors.New("blob name contains invalid characters")
	ErrEmptyName   = errors.New("blob name cannot be empty")
)

// Store persists uploaded files in a single flat directory. Stored names are
// prefixed with the upload timestamp in Unix milliseconds; uploads of the
// same original name within the same millisecond get a disambiguating
// counter, so a stored name is never reused.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) (*Store, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{
		dir: dir,
		now: time.Now,
	}, nil
}

// Save writes the reader's content as a new blob and returns the stored
// filename. The blob is written to a temporary file first and linked into
// place, so a partially written blob is never visible to readers and an
// existing blob is never overwritten.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name, err := sanitizeName(originalName)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	storedName, err := s.reserveName(tmpPath, name)
	_ = os.Remove(tmpPath)
	if err != nil {
		return "", err
	}
	return storedName, nil
}

// reserveName publishes the temp file under a unique stored name. os.Link
// fails with fs.ErrExist instead of overwriting, unlike os.Rename, so a name
// collision can never destroy an earlier blob.
func (s *Store) reserveName(tmpPath, name string) (string, error) {
	timestamp := s.now().UnixMilli()
	for attempt := 0; ; attempt++ {
		storedName := fmt.Sprintf("%d-%s", timestamp, name)
		if attempt > 0 {
			storedName = fmt.Sprintf("%d-%d-%s", timestamp, attempt, name)
		}

		err := os.Link(tmpPath, filepath.Join(s.dir, storedName))
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to store blob %s: %w", storedName, err)
		}
		return storedName, nil
	}
}

// Open returns the blob content together with its sniffed content type.
// The caller owns closing the returned reader.
func (s *Store) Open(filename string) (io.ReadCloser, string, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open blob %s: %w", filename, err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		_ = file.Close()
		return nil, "", fmt.Errorf("failed to read blob %s: %w", filename, err)
	}
	head = head[:n]

	return &blobReader{
		Reader: io.MultiReader(bytes.NewReader(head), file),
		file:   file,
	}, http.DetectContentType(head), nil
}

// Delete removes the named blob. A missing blob yields ErrNotFound so the
// caller can decide whether that counts as success.
func (s *Store) Delete(filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", filename, err)
	}
	return nil
}

func (s *Store) path(filename string) (string, error) {
	name, err := sanitizeName(filename)
	if err != nil {
		return "", err
	}
	if name != filename {
		// Requested name was not a plain filename, e.g. a traversal attempt
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// sanitizeName reduces a client-supplied name to a bare filename. Path
// separators and parent references must never reach the filesystem.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", ErrEmptyName
	}
	if strings.ContainsAny(name, "\x00") || strings.HasPrefix(name, tempPrefix) {
		return "", ErrInvalidName
	}
	return name, nil
}

type blobReader struct {
	io.Reader
	file *os.File
}

func (r *blobReader) Close() error {
	return r.file.Close()
}
