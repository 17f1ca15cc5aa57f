// Package archive keeps receipt images on the local filesystem, sorted into
// pending, processed and error directories as reconciliation decides.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	pendingDir   = "pending"
	processedDir = "processed"
	errorDir     = "error"
)

// Local stores images under a base directory.
type Local struct {
	basePath string
}

// NewLocal creates the archive directories if they do not exist.
func NewLocal(basePath string) (*Local, error) {
	for _, dir := range []string{pendingDir, processedDir, errorDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}
	return &Local{basePath: basePath}, nil
}

// SavePending writes a freshly downloaded image into the pending directory
// and returns the reference used for later moves.
func (l *Local) SavePending(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, pendingDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing pending image: %w", err)
	}
	return filename, nil
}

// MoveToProcessed moves a pending image into the processed directory.
func (l *Local) MoveToProcessed(ref string) error {
	return l.move(ref, processedDir)
}

// MoveToError moves a pending image into the error directory.
func (l *Local) MoveToError(ref string) error {
	return l.move(ref, errorDir)
}

func (l *Local) move(ref, destDir string) error {
	src := filepath.Join(l.basePath, pendingDir, ref)
	dest := filepath.Join(l.basePath, destDir, ref)
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("moving image to %s: %w", destDir, err)
	}
	return nil
}

// Get reads an archived image from the pending directory.
func (l *Local) Get(ref string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, pendingDir, ref))
	if err != nil {
		return nil, fmt.Errorf("reading pending image: %w", err)
	}
	return data, nil
}
