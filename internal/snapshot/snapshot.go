// Package snapshot provides materialized, immutable views of a repository's
// file names at a single commit. A snapshot is built once (from a checked-out
// worktree or from the GitHub trees API) and queried without further I/O.
package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSet is an in-memory snapshot of file paths. Paths use forward slashes
// relative to the repository root.
type FileSet struct {
	names map[string]struct{}
	list  []string
}

// New builds a snapshot from explicit file paths.
func New(files ...string) *FileSet {
	s := &FileSet{names: make(map[string]struct{}, len(files))}
	for _, f := range files {
		f = filepath.ToSlash(strings.TrimPrefix(f, "./"))
		if f == "" {
			continue
		}
		if _, dup := s.names[f]; dup {
			continue
		}
		s.names[f] = struct{}{}
		s.list = append(s.list, f)
	}
	sort.Strings(s.list)
	return s
}

// FromDir walks a checked-out worktree and snapshots every regular file,
// skipping the .git directory.
func FromDir(root string) (*FileSet, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk worktree %s: %w", root, err)
	}
	return New(files...), nil
}

// HasFile reports whether a file with exactly this path exists.
func (s *FileSet) HasFile(name string) bool {
	_, ok := s.names[name]
	return ok
}

// HasFileWithExtension reports whether any file name ends with ext.
func (s *FileSet) HasFileWithExtension(ext string) bool {
	if ext == "" {
		return false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, f := range s.list {
		if strings.HasSuffix(f, ext) {
			return true
		}
	}
	return false
}

// Files returns the sorted file paths in the snapshot.
func (s *FileSet) Files() []string {
	out := make([]string, len(s.list))
	copy(out, s.list)
	return out
}

// ReadFile reads a file relative to a worktree root; used for per-repo config
// discovery after the snapshot has been materialized from a directory.
func ReadFile(root, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(root, name))
}
