// Package configstore loads and saves diagram documents as JSON files.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

// Common store errors that can be checked with errors.Is()
var (
	// ErrNotFound is returned when the file or its directory does not exist
	ErrNotFound = errors.New("config not found")

	// ErrIO is returned for any other filesystem failure
	ErrIO = errors.New("config i/o failure")

	// ErrInvalidDocument is returned when a document fails validation on save
	ErrInvalidDocument = errors.New("invalid config document")
)

// Store reads and writes config documents. Operations on the same path are
// serialized within the process; across processes the last writer wins.
type Store struct {
	locks sync.Map // path -> *sync.Mutex
}

// New creates a config store.
func New() *Store {
	return &Store{}
}

func (s *Store) lock(path string) func() {
	v, _ := s.locks.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Load reads the document at path. Empty or unparsable content yields an
// empty document rather than an error so a freshly created file can be opened.
func (s *Store) Load(ctx context.Context, path string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	unlock := s.lock(path)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, classify("read", path, err)
	}

	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return domain.EmptyDocument(), nil
	}
	return doc, nil
}

// Save validates doc and writes it to path with two-space indentation,
// creating the file if needed. The containing directory must exist.
func (s *Store) Save(ctx context.Context, path string, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	unlock := s.lock(path)
	defer unlock()

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return classify("stat", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", dir, ErrNotFound)
	}

	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data next to path and renames it into place so a
// crash never leaves a half-written document behind.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory: %w", path, ErrIO)
		}
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return classify("create temp for", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return classify("write", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return classify("chmod", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return classify("close", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return classify("rename", path, err)
	}
	return nil
}

func classify(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %s: %w", op, path, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w: %v", op, path, ErrIO, err)
}
