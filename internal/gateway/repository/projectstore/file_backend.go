package projectstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tonide/internal/safeio"
	"tonide/internal/workspace"
)

func (s *Store) ensureLoadedFile() error {
	s.loadOnce.Do(func() {
		if s.path == "" {
			return
		}
		b, err := os.ReadFile(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.loadErr = err
			}
			return
		}
		var rows []record
		if err := json.Unmarshal(b, &rows); err != nil {
			s.loadErr = fmt.Errorf("decode %s: %w", s.path, err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			p := workspace.NormalizeProject(row.Project)
			if p.ID == "" {
				continue
			}
			s.byID[p.ID] = record{Project: p, Nodes: normalizeNodes(row.Nodes)}
		}
	})
	return s.loadErr
}

// saveLocked writes the snapshot to disk; s.mu must be held.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	rows := make([]record, 0, len(s.byID))
	for _, row := range s.byID {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Project.ID < rows[j].Project.ID })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	dir, err := safeio.New(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	return dir.WriteFile(filepath.Base(s.path), b)
}

func (s *Store) createFile(p workspace.Project, nodes []workspace.TreeNode) error {
	if err := s.ensureLoadedFile(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[p.ID]; exists {
		return ErrAlreadyExists
	}
	s.byID[p.ID] = record{Project: p, Nodes: nodes}
	if err := s.saveLocked(); err != nil {
		delete(s.byID, p.ID)
		return err
	}
	return nil
}

func (s *Store) getFile(projectID string) (workspace.Project, error) {
	if err := s.ensureLoadedFile(); err != nil {
		return workspace.Project{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.byID[strings.TrimSpace(projectID)]
	if !ok {
		return workspace.Project{}, ErrNotFound
	}
	return row.Project, nil
}

func (s *Store) listFile() ([]workspace.Project, error) {
	if err := s.ensureLoadedFile(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]workspace.Project, 0, len(s.byID))
	for _, row := range s.byID {
		out = append(out, row.Project)
	}
	s.mu.RUnlock()
	sortProjects(out)
	return out, nil
}

func (s *Store) updateFile(projectID string, update func(*workspace.Project)) (workspace.Project, error) {
	if err := s.ensureLoadedFile(); err != nil {
		return workspace.Project{}, err
	}
	id := strings.TrimSpace(projectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return workspace.Project{}, ErrNotFound
	}
	prev := row
	if update != nil {
		update(&row.Project)
	}
	row.Project.ID = id
	row.Project.CreatedAt = prev.Project.CreatedAt
	row.Project.UpdatedAt = time.Now().UTC()
	row.Project = workspace.NormalizeProject(row.Project)
	s.byID[id] = row
	if err := s.saveLocked(); err != nil {
		s.byID[id] = prev
		return workspace.Project{}, err
	}
	return row.Project, nil
}

func (s *Store) deleteFile(projectID string) error {
	if err := s.ensureLoadedFile(); err != nil {
		return err
	}
	id := strings.TrimSpace(projectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	if err := s.saveLocked(); err != nil {
		s.byID[id] = prev
		return err
	}
	return nil
}

func (s *Store) nodesFile(projectID string) ([]workspace.TreeNode, error) {
	if err := s.ensureLoadedFile(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.byID[strings.TrimSpace(projectID)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]workspace.TreeNode(nil), row.Nodes...), nil
}

func (s *Store) putNodesFile(projectID string, nodes []workspace.TreeNode) error {
	if err := s.ensureLoadedFile(); err != nil {
		return err
	}
	id := strings.TrimSpace(projectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	prev := row
	merged := append([]workspace.TreeNode(nil), row.Nodes...)
	pos := make(map[string]int, len(merged))
	for i, n := range merged {
		pos[n.ID] = i
	}
	for _, n := range nodes {
		if i, ok := pos[n.ID]; ok {
			merged[i] = n
			continue
		}
		pos[n.ID] = len(merged)
		merged = append(merged, n)
	}
	row.Nodes = merged
	row.Project.UpdatedAt = time.Now().UTC()
	s.byID[id] = row
	if err := s.saveLocked(); err != nil {
		s.byID[id] = prev
		return err
	}
	return nil
}

func (s *Store) deleteNodesFile(projectID string, ids []string) error {
	if err := s.ensureLoadedFile(); err != nil {
		return err
	}
	id := strings.TrimSpace(projectID)
	drop := make(map[string]bool, len(ids))
	for _, nid := range ids {
		drop[strings.TrimSpace(nid)] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	prev := row
	kept := make([]workspace.TreeNode, 0, len(row.Nodes))
	for _, n := range row.Nodes {
		if !drop[n.ID] {
			kept = append(kept, n)
		}
	}
	row.Nodes = kept
	row.Project.UpdatedAt = time.Now().UTC()
	s.byID[id] = row
	if err := s.saveLocked(); err != nil {
		s.byID[id] = prev
		return err
	}
	return nil
}

func sortProjects(ps []workspace.Project) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}
