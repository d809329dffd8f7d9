package main

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/ddddddO/gtree"

	"tonide/internal/workspace"
)

// renderTree draws nodes under a root labelled with the project name.
// Directories get a trailing slash.
func renderTree(w io.Writer, rootName string, nodes []workspace.TreeNode) error {
	root := gtree.NewRoot(rootName)
	if len(nodes) == 0 {
		return gtree.OutputFromRoot(w, root)
	}

	sorted := append([]workspace.TreeNode(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := strings.Count(sorted[i].Path, "/"), strings.Count(sorted[j].Path, "/")
		if di != dj {
			return di < dj
		}
		return sorted[i].Path < sorted[j].Path
	})

	byPath := map[string]*gtree.Node{}
	for _, n := range sorted {
		parent := root
		if dir := path.Dir(n.Path); dir != "." {
			if p, ok := byPath[dir]; ok {
				parent = p
			}
		}
		label := n.Name
		if n.IsDir() {
			label += "/"
		}
		byPath[n.Path] = parent.Add(label)
	}
	return gtree.OutputFromRoot(w, root)
}

func formatGetter(g workspace.Getter) string {
	params := make([]string, 0, len(g.Parameters))
	for _, p := range g.Parameters {
		params = append(params, p.Type+" "+p.Name)
	}
	return fmt.Sprintf("%s(%s) -> (%s)", g.Name, strings.Join(params, ", "), strings.Join(g.ReturnTypes, ", "))
}
