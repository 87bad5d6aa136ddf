// Package imagestore writes uploaded profile photos to disk in two steps:
// Stage copies the upload into a hidden temporary file next to its final
// location, Commit renames it into place. A staged file that is never
// committed is removed by Discard, so a failed request leaves neither a
// partial image nor a half-replaced one.
package imagestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge   = errors.New("imagestore: file exceeds the size limit")
	ErrInvalidName    = errors.New("imagestore: invalid file name")
	ErrAlreadyApplied = errors.New("imagestore: staged file already committed or discarded")
)

// Store stages uploads for an atomic replace.
type Store interface {
	Stage(name string, content io.Reader) (Staged, error)
}

// Staged is an upload written to a temporary path. Exactly one of Commit or
// Discard takes effect; Discard after Commit is a no-op.
type Staged interface {
	Commit() error
	Discard() error
}

// DiskStore keeps images in a single directory.
type DiskStore struct {
	dir     string
	maxSize int64
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the directory images are written to.
func (s *DiskStore) Dir() string { return s.dir }

// Stage writes content to a temporary file. Nothing at the final path changes
// until Commit.
func (s *DiskStore) Stage(name string, content io.Reader) (Staged, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, ErrInvalidName
	}

	tmpPath := filepath.Join(s.dir, "."+name+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("imagestore: create temp file: %w", err)
	}

	staged := &stagedFile{tmpPath: tmpPath, finalPath: filepath.Join(s.dir, name)}
	n, err := io.Copy(f, io.LimitReader(content, s.maxSize+1))
	if err == nil && n > s.maxSize {
		err = ErrFileTooLarge
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("imagestore: write %s: %w", name, err)
	}
	return staged, nil
}

type stagedFile struct {
	tmpPath   string
	finalPath string
	done      bool
}

func (s *stagedFile) Commit() error {
	if s.done {
		return ErrAlreadyApplied
	}
	if err := os.Rename(s.tmpPath, s.finalPath); err != nil {
		return fmt.Errorf("imagestore: commit %s: %w", filepath.Base(s.finalPath), err)
	}
	s.done = true
	return nil
}

func (s *stagedFile) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := os.Remove(s.tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

var _ Store = (*DiskStore)(nil)
