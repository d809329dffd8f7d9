package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tonide/internal/workspace"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

func (s *MemoryStore) Put(_ context.Context, projectID string, files ...workspace.FileContent) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	for _, fc := range files {
		if _, _, err := validateKey(projectID, fc.ID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fc := range files {
		s.data[contentKey(projectID, fc.ID)] = fc.Content
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, projectID, id string) (workspace.FileContent, error) {
	if s == nil {
		return workspace.FileContent{}, fmt.Errorf("store is nil")
	}
	projectID, id, err := validateKey(projectID, id)
	if err != nil {
		return workspace.FileContent{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.data[contentKey(projectID, id)]
	if !ok {
		return workspace.FileContent{}, ErrNotFound
	}
	return workspace.FileContent{ID: id, Content: body}, nil
}

func (s *MemoryStore) Delete(_ context.Context, projectID string, ids ...string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.data, contentKey(projectID, id))
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, projectID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	prefix := projectID + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 16)
	for key := range s.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, strings.TrimPrefix(key, prefix))
	}
	sort.Strings(out)
	return out, nil
}
