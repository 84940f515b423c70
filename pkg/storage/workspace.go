package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	igerrors "igreelbot/pkg/errors"
)

// Workspace tracks the files produced while serving one request so they can
// be removed together once the request is done
type Workspace struct {
	dir   string
	paths []string
	mu    sync.Mutex
}

// NewWorkspace creates a workspace rooted at dir, creating dir if needed
func NewWorkspace(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Path joins name onto the workspace root
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Track registers a file for removal by Cleanup. Empty and duplicate paths
// are ignored.
func (w *Workspace) Track(path string) {
	if path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range w.paths {
		if p == path {
			return
		}
	}
	w.paths = append(w.paths, path)
}

// Tracked returns the registered files in registration order
func (w *Workspace) Tracked() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, len(w.paths))
	copy(paths, w.paths)
	return paths
}

// Cleanup removes every tracked file. Files that are already gone are not an
// error. Every other failure is reported as a cleanup_failed error; removal
// continues past failures.
func (w *Workspace) Cleanup() error {
	w.mu.Lock()
	paths := w.paths
	w.paths = nil
	w.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, igerrors.Wrap(igerrors.ErrorTypeCleanupFailed, p, err))
		}
	}
	return errors.Join(errs...)
}

// WriteFileAtomic writes the reader's content to path through a temporary
// file in the same directory followed by a rename, so readers never observe
// a partially written file
func WriteFileAtomic(path string, r io.Reader, perm os.FileMode) error {
	tempFile := path + ".tmp"
	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
