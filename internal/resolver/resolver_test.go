package resolver

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonide/internal/funcsrc"
	"tonide/internal/workspace"
)

type fakeFiles struct {
	byPath  map[string]workspace.FileRecord
	lookups map[string]int
	failOn  string
}

func newFakeFiles(files map[string]string) *fakeFiles {
	f := &fakeFiles{
		byPath:  map[string]workspace.FileRecord{},
		lookups: map[string]int{},
	}
	for p, body := range files {
		f.byPath[p] = workspace.FileRecord{ID: "id-" + p, Path: p, Content: body}
	}
	return f
}

func (f *fakeFiles) lookup(_ context.Context, path string) (workspace.FileRecord, bool, error) {
	f.lookups[path]++
	if path == f.failOn {
		return workspace.FileRecord{}, false, errors.New("store offline")
	}
	rec, ok := f.byPath[path]
	return rec, ok, nil
}

func sortedPaths(u *CompileUnit) []string {
	out := u.Paths()
	sort.Strings(out)
	return out
}

func TestResolveTransitiveClosure(t *testing.T) {
	files := newFakeFiles(map[string]string{
		"main.fc":       `#include "lib.fc";` + "\n" + `#include "utils/math.fc";`,
		"lib.fc":        "int lib() { return 1; }",
		"utils/math.fc": `#include "ops.fc";`,
		"utils/ops.fc":  "int op() { return 2; }",
		"unused.fc":     "int unused() { return 3; }",
	})

	unit, err := Resolve(context.Background(), "main.fc", files.lookup, funcsrc.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"lib.fc", "main.fc", "utils/math.fc", "utils/ops.fc"}, sortedPaths(unit))
	assert.Equal(t, "main.fc", unit.Files()[0].Path)
}

func TestResolveBareNameIsRelativeToCurrentDirectory(t *testing.T) {
	files := newFakeFiles(map[string]string{
		"a/b/c.fc":   `#include "lib.fc";`,
		"a/b/lib.fc": "int lib() { return 1; }",
		"lib.fc":     "int root() { return 0; }",
	})

	unit, err := Resolve(context.Background(), "a/b/c.fc", files.lookup, funcsrc.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c.fc", "a/b/lib.fc"}, sortedPaths(unit))
}

func TestResolveSkipsMissingTargets(t *testing.T) {
	files := newFakeFiles(map[string]string{
		"main.fc": `#include "ghost.fc";`,
	})

	unit, err := Resolve(context.Background(), "main.fc", files.lookup, funcsrc.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"main.fc"}, unit.Paths())
	assert.Equal(t, 1, files.lookups["ghost.fc"])
}

func TestResolveTerminatesOnCycles(t *testing.T) {
	files := newFakeFiles(map[string]string{
		"a.fc": `#include "b.fc";`,
		"b.fc": `#include "a.fc";` + "\n" + `#include "b.fc";`,
	})

	unit, err := Resolve(context.Background(), "a.fc", files.lookup, funcsrc.New())
	require.NoError(t, err)
	assert.Equal(t, 2, unit.Len())
	assert.Equal(t, 1, files.lookups["a.fc"])
	assert.Equal(t, 1, files.lookups["b.fc"])
}

func TestResolveEmptyEntry(t *testing.T) {
	files := newFakeFiles(map[string]string{"main.fc": ""})

	unit, err := Resolve(context.Background(), "main.fc", files.lookup, funcsrc.New())
	require.NoError(t, err)
	assert.Equal(t, 0, unit.Len())
}

func TestResolvePropagatesErrors(t *testing.T) {
	files := newFakeFiles(map[string]string{"main.fc": `#include "lib.fc";`})
	files.failOn = "lib.fc"

	_, err := Resolve(context.Background(), "main.fc", files.lookup, funcsrc.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")

	broken := ExtractorFunc(func(string) ([]string, error) { return nil, errors.New("bad syntax") })
	_, err = Resolve(context.Background(), "main.fc", newFakeFiles(map[string]string{"main.fc": "x"}).lookup, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main.fc")
}

func TestRewriteDirective(t *testing.T) {
	assert.Equal(t, "a/b/lib.fc", RewriteDirective("a/b/c.fc", "lib.fc"))
	assert.Equal(t, "lib.fc", RewriteDirective("main.fc", "lib.fc"))
	assert.Equal(t, "imports/stdlib.fc", RewriteDirective("contracts/main.fc", "imports/stdlib.fc"))
}
