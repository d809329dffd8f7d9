package workspace

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
)

type Template string

const (
	TemplateBlank   Template = "tonBlank"
	TemplateCounter Template = "tonCounter"
	// TemplateImport means the caller supplies the nodes (archive import).
	TemplateImport Template = "import"
)

var ErrUnknownTemplate = errors.New("unknown template")

//go:embed templates
var templateFS embed.FS

const commonTemplateDir = "common"

// ParseTemplate accepts the template identifiers used by clients.
func ParseTemplate(raw string) (Template, error) {
	switch t := Template(strings.TrimSpace(raw)); t {
	case TemplateBlank, TemplateCounter, TemplateImport:
		return t, nil
	case "":
		return TemplateBlank, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, raw)
	}
}

// Templates lists the built-in starter projects.
func Templates() []Template {
	return []Template{TemplateBlank, TemplateCounter}
}

// Instantiation is a tree plus the contents split out of its file nodes.
type Instantiation struct {
	Files       []TreeNode    `json:"files"`
	FilesWithID []FileContent `json:"filesWithId"`
}

// Instantiate copies the supplied nodes, or the built-in node list of t when
// none are given, mints ids for file nodes and moves their content out of
// the tree.
func Instantiate(t Template, nodes []TreeNode) (Instantiation, error) {
	src := cloneNodes(nodes)
	if len(src) == 0 && t != TemplateImport {
		builtin, err := TemplateNodes(t)
		if err != nil {
			return Instantiation{}, err
		}
		src = builtin
	}

	// Parents follow directory ids, so directories keep theirs.
	dirIDs := make(map[string]string)
	for i := range src {
		if !src[i].IsDir() {
			continue
		}
		if src[i].ID == "" {
			src[i].ID = uuid.NewString()
		}
		dirIDs[src[i].Path] = src[i].ID
	}

	out := Instantiation{
		Files:       make([]TreeNode, 0, len(src)),
		FilesWithID: make([]FileContent, 0, len(src)),
	}
	for _, n := range src {
		if n.Type != NodeFile {
			out.Files = append(out.Files, n)
			continue
		}
		fileID := uuid.NewString()
		out.FilesWithID = append(out.FilesWithID, FileContent{ID: fileID, Content: n.Content})
		n.ID = fileID
		n.Content = ""
		if n.Parent == "" {
			n.Parent = dirIDs[Dir(n.Path)]
		}
		out.Files = append(out.Files, n)
	}
	return out, nil
}

// TemplateNodes builds the node list of a built-in template with inline content.
func TemplateNodes(t Template) ([]TreeNode, error) {
	switch t {
	case TemplateBlank, TemplateCounter:
		return nodesFromFS(string(t))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, t)
	}
}

// CommonProjectFiles is the boilerplate merged into every imported project.
func CommonProjectFiles() []TreeNode {
	nodes, err := nodesFromFS(commonTemplateDir)
	if err != nil {
		// The directory is embedded at build time.
		panic(fmt.Sprintf("common project files: %v", err))
	}
	return nodes
}

func nodesFromFS(root string) ([]TreeNode, error) {
	dirIDs := map[string]string{}
	var nodes []TreeNode
	err := fs.WalkDir(templateFS, "templates/"+root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := NormalizePath(strings.TrimPrefix(p, "templates/"+root))
		if rel == "" {
			return nil
		}
		node := TreeNode{
			Name:   d.Name(),
			Path:   rel,
			Parent: dirIDs[Dir(rel)],
		}
		if d.IsDir() {
			node.ID = uuid.NewString()
			node.Type = NodeDirectory
			dirIDs[rel] = node.ID
		} else {
			raw, err := templateFS.ReadFile(p)
			if err != nil {
				return err
			}
			node.Type = NodeFile
			node.Content = string(raw)
		}
		nodes = append(nodes, node)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", root, err)
	}
	return nodes, nil
}

func cloneNodes(nodes []TreeNode) []TreeNode {
	if len(nodes) == 0 {
		return nil
	}
	return append([]TreeNode(nil), nodes...)
}
