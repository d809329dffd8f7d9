package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tonide/internal/gateway/repository/content"
	"tonide/internal/workspace"
)

// Tree returns the project's nodes. Nodes never carry content.
func (s *Service) Tree(ctx context.Context, projectID string) ([]workspace.TreeNode, error) {
	return s.projects.Nodes(ctx, projectID)
}

func (s *Service) ReadFile(ctx context.Context, projectID, path string) (workspace.FileRecord, error) {
	rec, ok, err := s.GetFileByPath(ctx, projectID, path)
	if err != nil {
		return workspace.FileRecord{}, err
	}
	if !ok {
		return workspace.FileRecord{}, fmt.Errorf("%w: %s", ErrNodeNotFound, workspace.NormalizePath(path))
	}
	return rec, nil
}

// GetFileByPath looks up a file node by path and loads its content. A
// directory or an unknown path reports false.
func (s *Service) GetFileByPath(ctx context.Context, projectID, path string) (workspace.FileRecord, bool, error) {
	nodes, err := s.projects.Nodes(ctx, projectID)
	if err != nil {
		return workspace.FileRecord{}, false, err
	}
	node, ok := workspace.FindByPath(nodes, path)
	if !ok || !node.IsFile() {
		return workspace.FileRecord{}, false, nil
	}
	fc, err := s.contents.Get(ctx, projectID, node.ID)
	if err != nil && !errors.Is(err, content.ErrNotFound) {
		return workspace.FileRecord{}, false, err
	}
	return workspace.FileRecord{ID: node.ID, Path: node.Path, Content: fc.Content}, true, nil
}

// WriteFile replaces the content of an existing file.
func (s *Service) WriteFile(ctx context.Context, projectID, path, body string) (workspace.TreeNode, error) {
	nodes, err := s.projects.Nodes(ctx, projectID)
	if err != nil {
		return workspace.TreeNode{}, err
	}
	node, ok := workspace.FindByPath(nodes, path)
	if !ok {
		return workspace.TreeNode{}, fmt.Errorf("%w: %s", ErrNodeNotFound, workspace.NormalizePath(path))
	}
	if !node.IsFile() {
		return workspace.TreeNode{}, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, node.Path)
	}
	if err := s.contents.Put(ctx, projectID, workspace.FileContent{ID: node.ID, Content: body}); err != nil {
		return workspace.TreeNode{}, err
	}
	return node, nil
}

type CreateNodeRequest struct {
	ParentPath string
	Name       string
	Type       workspace.NodeType
	Content    string
}

// CreateNode adds a file or directory under ParentPath ("" is the root).
func (s *Service) CreateNode(ctx context.Context, projectID string, req CreateNodeRequest) (workspace.TreeNode, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateName(name); err != nil {
		return workspace.TreeNode{}, err
	}
	if req.Type != workspace.NodeFile && req.Type != workspace.NodeDirectory {
		return workspace.TreeNode{}, fmt.Errorf("%w: unknown node type %q", ErrInvalidInput, req.Type)
	}

	unlock := s.treeLocks.Lock(projectID)
	defer unlock()

	nodes, err := s.projects.Nodes(ctx, projectID)
	if err != nil {
		return workspace.TreeNode{}, err
	}
	parentID := ""
	parentPath := workspace.NormalizePath(req.ParentPath)
	if parentPath != "" {
		parent, ok := workspace.FindByPath(nodes, parentPath)
		if !ok {
			return workspace.TreeNode{}, fmt.Errorf("%w: %s", ErrNodeNotFound, parentPath)
		}
		if !parent.IsDir() {
			return workspace.TreeNode{}, fmt.Errorf("%w: %s is not a directory", ErrInvalidInput, parentPath)
		}
		parentID = parent.ID
	}
	path := workspace.Join(parentPath, name)
	if _, exists := workspace.FindByPath(nodes, path); exists {
		return workspace.TreeNode{}, fmt.Errorf("%w: %s", ErrPathExists, path)
	}

	node := workspace.TreeNode{
		ID:     uuid.NewString(),
		Name:   name,
		Type:   req.Type,
		Path:   path,
		Parent: parentID,
	}
	if node.IsFile() {
		if err := s.contents.Put(ctx, projectID, workspace.FileContent{ID: node.ID, Content: req.Content}); err != nil {
			return workspace.TreeNode{}, err
		}
	}
	if err := s.projects.PutNodes(ctx, projectID, node); err != nil {
		return workspace.TreeNode{}, err
	}
	return node, nil
}

// DeleteNode removes a node, its descendants and their contents.
func (s *Service) DeleteNode(ctx context.Context, projectID, path string) ([]string, error) {
	unlock := s.treeLocks.Lock(projectID)
	defer unlock()

	nodes, err := s.projects.Nodes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	node, ok := workspace.FindByPath(nodes, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, workspace.NormalizePath(path))
	}
	doomed := append([]workspace.TreeNode{node}, workspace.Descendants(nodes, node.ID)...)
	ids := make([]string, 0, len(doomed))
	for _, n := range doomed {
		ids = append(ids, n.ID)
	}
	if files := fileIDs(doomed); len(files) > 0 {
		if err := s.contents.Delete(ctx, projectID, files...); err != nil {
			return nil, fmt.Errorf("delete contents: %w", err)
		}
	}
	if err := s.projects.DeleteNodes(ctx, projectID, ids...); err != nil {
		return nil, err
	}
	s.logger.Debug("node deleted", zap.String("project_id", projectID), zap.String("path", node.Path), zap.Int("removed", len(ids)))
	return ids, nil
}

// RenameNode gives a node a new name in the same directory and rewrites
// the paths below it.
func (s *Service) RenameNode(ctx context.Context, projectID, path, newName string) (workspace.TreeNode, error) {
	newName = strings.TrimSpace(newName)
	if err := validateName(newName); err != nil {
		return workspace.TreeNode{}, err
	}

	unlock := s.treeLocks.Lock(projectID)
	defer unlock()

	nodes, err := s.projects.Nodes(ctx, projectID)
	if err != nil {
		return workspace.TreeNode{}, err
	}
	node, ok := workspace.FindByPath(nodes, path)
	if !ok {
		return workspace.TreeNode{}, fmt.Errorf("%w: %s", ErrNodeNotFound, workspace.NormalizePath(path))
	}
	oldPath := node.Path
	newPath := workspace.Join(workspace.Dir(oldPath), newName)
	if newPath == oldPath {
		return node, nil
	}
	if _, exists := workspace.FindByPath(nodes, newPath); exists {
		return workspace.TreeNode{}, fmt.Errorf("%w: %s", ErrPathExists, newPath)
	}

	node.Name = newName
	node.Path = newPath
	changed := []workspace.TreeNode{node}
	for _, d := range workspace.Descendants(nodes, node.ID) {
		d.Path = newPath + strings.TrimPrefix(d.Path, oldPath)
		changed = append(changed, d)
	}
	if err := s.projects.PutNodes(ctx, projectID, changed...); err != nil {
		return workspace.TreeNode{}, err
	}
	return node, nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("%w: name must not contain a path separator", ErrInvalidInput)
	case name == "." || name == "..":
		return fmt.Errorf("%w: invalid name %q", ErrInvalidInput, name)
	}
	return nil
}
