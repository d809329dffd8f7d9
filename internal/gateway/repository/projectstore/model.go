package projectstore

import (
	"encoding/json"
	"errors"
	"strings"

	"tonide/internal/workspace"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrAlreadyExists = errors.New("project already exists")
)

// record is the unit the file backend persists: a project and its tree.
type record struct {
	Project workspace.Project    `json:"project"`
	Nodes   []workspace.TreeNode `json:"nodes"`
}

func normalizeNode(n workspace.TreeNode) workspace.TreeNode {
	n.ID = strings.TrimSpace(n.ID)
	n.Name = strings.TrimSpace(n.Name)
	n.Path = workspace.NormalizePath(n.Path)
	n.Parent = strings.TrimSpace(n.Parent)
	n.Content = ""
	if n.Name == "" {
		n.Name = workspace.Base(n.Path)
	}
	return n
}

func normalizeNodes(nodes []workspace.TreeNode) []workspace.TreeNode {
	out := make([]workspace.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, normalizeNode(n))
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (workspace.Project, error) {
	var (
		p       workspace.Project
		tmpl    string
		abiJSON []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &tmpl, &abiJSON, &p.ContractBOC, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return workspace.Project{}, err
	}
	p.Template = workspace.Template(tmpl)
	if len(abiJSON) > 0 && string(abiJSON) != "null" {
		var abi workspace.ABI
		if err := json.Unmarshal(abiJSON, &abi); err != nil {
			return workspace.Project{}, err
		}
		p.ABI = &abi
	}
	return workspace.NormalizeProject(p), nil
}

func encodeABI(abi *workspace.ABI) ([]byte, error) {
	if abi == nil {
		return nil, nil
	}
	return json.Marshal(abi)
}
