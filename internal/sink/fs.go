// Package sink stores routed entries on the local filesystem.
package sink

import (
	"fmt"
	"os"
)

// FS implements directory creation and appends on the local filesystem
type FS struct {
	DirMode  os.FileMode
	FileMode os.FileMode
}

// NewFS creates a filesystem sink with the given permissions
func NewFS(dirMode, fileMode os.FileMode) *FS {
	return &FS{
		DirMode:  dirMode,
		FileMode: fileMode,
	}
}

// EnsureDirectory creates path and any missing parents. An existing
// directory is not an error.
func (s *FS) EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, s.DirMode); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

// AppendBytes appends data to path in one write call, creating the file if
// needed. O_APPEND keeps concurrent appenders from interleaving within a
// single write on local filesystems.
func (s *FS) AppendBytes(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, s.FileMode)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
