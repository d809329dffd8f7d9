// Package resolver computes the set of source files an entry file needs by
// following include directives.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"tonide/internal/workspace"
)

// Lookup finds a file by project path. ok is false when no such file exists.
type Lookup func(ctx context.Context, path string) (rec workspace.FileRecord, ok bool, err error)

// Extractor lists the directive references embedded in a file body.
type Extractor interface {
	ExtractDirectives(content string) ([]string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(content string) ([]string, error)

func (f ExtractorFunc) ExtractDirectives(content string) ([]string, error) { return f(content) }

// CompileUnit is the closed set of files for one compile pass, keyed by file
// id. Order keeps the sequence in which files were first recorded.
type CompileUnit struct {
	files map[string]workspace.FileRecord
	order []string
	paths map[string]string
}

func NewCompileUnit() *CompileUnit {
	return &CompileUnit{
		files: make(map[string]workspace.FileRecord),
		paths: make(map[string]string),
	}
}

// Add records rec unless a file with the same id is already present.
func (u *CompileUnit) Add(rec workspace.FileRecord) bool {
	if _, ok := u.files[rec.ID]; ok {
		return false
	}
	u.files[rec.ID] = rec
	u.order = append(u.order, rec.ID)
	u.paths[rec.Path] = rec.ID
	return true
}

func (u *CompileUnit) Get(id string) (workspace.FileRecord, bool) {
	rec, ok := u.files[id]
	return rec, ok
}

func (u *CompileUnit) ByPath(path string) (workspace.FileRecord, bool) {
	id, ok := u.paths[workspace.NormalizePath(path)]
	if !ok {
		return workspace.FileRecord{}, false
	}
	return u.files[id], true
}

// Files returns the recorded files in recording order.
func (u *CompileUnit) Files() []workspace.FileRecord {
	out := make([]workspace.FileRecord, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.files[id])
	}
	return out
}

func (u *CompileUnit) Paths() []string {
	out := make([]string, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.files[id].Path)
	}
	return out
}

func (u *CompileUnit) Len() int { return len(u.order) }

// Resolve walks include directives from entryPath with an explicit stack.
// Every distinct path is looked up once, so directive cycles terminate.
// Missing files and files without content are skipped and not expanded.
func Resolve(ctx context.Context, entryPath string, lookup Lookup, extractor Extractor) (*CompileUnit, error) {
	if lookup == nil {
		return nil, fmt.Errorf("lookup is nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}
	unit := NewCompileUnit()
	visited := make(map[string]bool)
	stack := []string{workspace.NormalizePath(entryPath)}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if path == "" || visited[path] {
			continue
		}
		visited[path] = true

		rec, ok, err := lookup(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", path, err)
		}
		if !ok || rec.Content == "" {
			continue
		}
		if rec.Path == "" {
			rec.Path = path
		}
		unit.Add(rec)

		directives, err := extractor.ExtractDirectives(rec.Content)
		if err != nil {
			return nil, fmt.Errorf("extract directives from %s: %w", rec.Path, err)
		}
		for _, d := range directives {
			stack = append(stack, RewriteDirective(rec.Path, d))
		}
	}
	return unit, nil
}

// RewriteDirective turns a bare file name into a path next to the file that
// references it. References that already have several segments are project
// paths and are returned normalized.
func RewriteDirective(currentPath, ref string) string {
	ref = workspace.NormalizePath(ref)
	if strings.Contains(ref, "/") {
		return ref
	}
	return workspace.Join(workspace.Dir(currentPath), ref)
}
