// Package safeio confines file access to a single root directory. Paths are
// relative to the root; traversal and symlinks that escape it are rejected.
package safeio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideRoot = errors.New("safeio: path escapes root")

type FS struct {
	absRoot string // symlinks resolved
}

// New binds an FS to root, creating the directory when it does not exist.
func New(root string) (*FS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: root is not a directory")
	}
	return &FS{absRoot: abs}, nil
}

func (s *FS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

func (s *FS) ReadFile(rel string) ([]byte, error) {
	p, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("safeio: path is a directory")
	}
	return os.ReadFile(p)
}

// WriteFile replaces rel atomically through a temp file in the same
// directory. Missing parents are created.
func (s *FS) WriteFile(rel string, data []byte) error {
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Remove deletes rel. A missing file is not an error.
func (s *FS) Remove(rel string) error {
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll deletes rel and everything below it. The root itself cannot be
// removed.
func (s *FS) RemoveAll(rel string) error {
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if p == s.absRoot {
		return fmt.Errorf("safeio: refusing to remove root")
	}
	return os.RemoveAll(p)
}

// ReadDir lists rel. A missing directory reads as empty.
func (s *FS) ReadDir(rel string) ([]fs.DirEntry, error) {
	p, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

// Open implements fs.FS.
func (s *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, fs.ErrInvalid
	}
	p, err := s.resolve(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// resolve maps rel onto the root. Components that do not exist yet are
// allowed; the deepest existing ancestor must still resolve under the root.
func (s *FS) resolve(rel string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	if rel == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %s is absolute", ErrOutsideRoot, rel)
	}
	if clean == "." {
		return s.absRoot, nil
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}

	joined := filepath.Join(s.absRoot, clean)
	existing, rest := joined, ""
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			if !hasPathPrefix(resolved, s.absRoot) {
				return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
			}
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return "", err
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
