package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"tonide/internal/safeio"
	"tonide/internal/workspace"
)

// DiskStore keeps one file per content entry under root/projectID/id.
// Writes are atomic and confined to root.
type DiskStore struct {
	root string

	once  sync.Once
	fsys  *safeio.FS
	fsErr error
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: strings.TrimSpace(root)}
}

func (s *DiskStore) Put(_ context.Context, projectID string, files ...workspace.FileContent) error {
	fsys, err := s.open()
	if err != nil {
		return err
	}
	for _, fc := range files {
		rel, err := entryPath(projectID, fc.ID)
		if err != nil {
			return err
		}
		if err := fsys.WriteFile(rel, []byte(fc.Content)); err != nil {
			return err
		}
	}
	return nil
}

func (s *DiskStore) Get(_ context.Context, projectID, id string) (workspace.FileContent, error) {
	fsys, err := s.open()
	if err != nil {
		return workspace.FileContent{}, err
	}
	rel, err := entryPath(projectID, id)
	if err != nil {
		return workspace.FileContent{}, err
	}
	raw, err := fsys.ReadFile(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return workspace.FileContent{}, ErrNotFound
		}
		return workspace.FileContent{}, err
	}
	return workspace.FileContent{ID: strings.TrimSpace(id), Content: string(raw)}, nil
}

func (s *DiskStore) Delete(_ context.Context, projectID string, ids ...string) error {
	fsys, err := s.open()
	if err != nil {
		return err
	}
	for _, id := range ids {
		rel, err := entryPath(projectID, id)
		if err != nil {
			return err
		}
		if err := fsys.Remove(rel); err != nil {
			return err
		}
	}
	return nil
}

func (s *DiskStore) List(_ context.Context, projectID string) ([]string, error) {
	fsys, err := s.open()
	if err != nil {
		return nil, err
	}
	projectID, _, err = validateKey(projectID, "-")
	if err != nil {
		return nil, err
	}
	entries, err := fsys.ReadDir(projectID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *DiskStore) open() (*safeio.FS, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if s.root == "" {
		return nil, fmt.Errorf("root is required")
	}
	s.once.Do(func() {
		s.fsys, s.fsErr = safeio.New(s.root)
	})
	return s.fsys, s.fsErr
}

func entryPath(projectID, id string) (string, error) {
	projectID, id, err := validateKey(projectID, id)
	if err != nil {
		return "", err
	}
	return path.Join(projectID, id), nil
}
