package workspace

import (
	"errors"
	"fmt"
	"strings"
)

type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

// TreeNode describes one file or directory of a project tree.
// Content is only populated while a tree is being built; committed nodes
// keep their bodies in the content store under the node ID.
type TreeNode struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    NodeType `json:"type"`
	Path    string   `json:"path"`
	Parent  string   `json:"parent,omitempty"`
	Content string   `json:"content,omitempty"`
}

func (n TreeNode) IsDir() bool  { return n.Type == NodeDirectory }
func (n TreeNode) IsFile() bool { return n.Type == NodeFile }

// FileContent is the body of a file node, keyed by the node ID.
type FileContent struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// FileRecord pairs a file node with its content.
type FileRecord struct {
	ID      string
	Path    string
	Content string
}

var ErrInvalidTree = errors.New("invalid tree")

// TreeError reports the node that broke a tree invariant.
type TreeError struct {
	NodeID string
	Path   string
	Reason string
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("invalid tree node %s (%s): %s", e.NodeID, e.Path, e.Reason)
}

func (e *TreeError) Unwrap() error { return ErrInvalidTree }

// NormalizePath trims whitespace and leading/trailing separators.
func NormalizePath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

// Dir returns everything before the last path segment, or "" for root-level paths.
func Dir(p string) string {
	p = NormalizePath(p)
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// Base returns the last path segment.
func Base(p string) string {
	p = NormalizePath(p)
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Join joins non-empty segments with "/".
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = NormalizePath(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, "/")
}

// Children returns the nodes whose parent is id. An empty id selects root-level nodes.
func Children(nodes []TreeNode, id string) []TreeNode {
	out := make([]TreeNode, 0, 8)
	for _, n := range nodes {
		if n.Parent == id {
			out = append(out, n)
		}
	}
	return out
}

// Descendants returns every node below id, depth first.
func Descendants(nodes []TreeNode, id string) []TreeNode {
	var out []TreeNode
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range Children(nodes, cur) {
			out = append(out, child)
			if child.IsDir() {
				stack = append(stack, child.ID)
			}
		}
	}
	return out
}

// PathOf walks parent links from id to the root and joins the names.
func PathOf(nodes []TreeNode, id string) (string, error) {
	byID := indexByID(nodes)
	var names []string
	seen := make(map[string]bool)
	for cur := id; cur != ""; {
		if seen[cur] {
			return "", &TreeError{NodeID: id, Reason: "parent cycle"}
		}
		seen[cur] = true
		n, ok := byID[cur]
		if !ok {
			return "", &TreeError{NodeID: cur, Reason: "unknown node"}
		}
		names = append(names, n.Name)
		cur = n.Parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/"), nil
}

// FindByPath returns the node stored at the normalized path.
func FindByPath(nodes []TreeNode, path string) (TreeNode, bool) {
	path = NormalizePath(path)
	for _, n := range nodes {
		if n.Path == path {
			return n, true
		}
	}
	return TreeNode{}, false
}

// Validate checks ids, paths and parent links of a complete tree.
func Validate(nodes []TreeNode) error {
	byID := make(map[string]TreeNode, len(nodes))
	byPath := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return &TreeError{Path: n.Path, Reason: "missing id"}
		}
		if n.Type != NodeFile && n.Type != NodeDirectory {
			return &TreeError{NodeID: n.ID, Path: n.Path, Reason: fmt.Sprintf("unknown type %q", n.Type)}
		}
		if _, dup := byID[n.ID]; dup {
			return &TreeError{NodeID: n.ID, Path: n.Path, Reason: "duplicate id"}
		}
		if n.Path != NormalizePath(n.Path) || n.Path == "" {
			return &TreeError{NodeID: n.ID, Path: n.Path, Reason: "path is not normalized"}
		}
		if other, dup := byPath[n.Path]; dup {
			return &TreeError{NodeID: n.ID, Path: n.Path, Reason: "path already used by " + other}
		}
		byID[n.ID] = n
		byPath[n.Path] = n.ID
	}
	for _, n := range nodes {
		if n.Parent != "" {
			parent, ok := byID[n.Parent]
			if !ok {
				return &TreeError{NodeID: n.ID, Path: n.Path, Reason: "parent does not exist"}
			}
			if !parent.IsDir() {
				return &TreeError{NodeID: n.ID, Path: n.Path, Reason: "parent is not a directory"}
			}
		}
		p, err := PathOf(nodes, n.ID)
		if err != nil {
			return err
		}
		if p != n.Path {
			return &TreeError{NodeID: n.ID, Path: n.Path, Reason: "path does not match ancestors (" + p + ")"}
		}
	}
	return nil
}

func indexByID(nodes []TreeNode) map[string]TreeNode {
	out := make(map[string]TreeNode, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n
	}
	return out
}
