package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonide/internal/workspace"
)

func zipOf(t *testing.T, files map[string]string, dirs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, d := range dirs {
		_, err := zw.Create(d)
		require.NoError(t, err)
	}
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUploadEntries(t *testing.T) {
	data := zipOf(t, map[string]string{
		"proj/contracts/main.fc": `#include "lib.fc";`,
		"proj/contracts/lib.fc":  "int one() { return 1; }",
	}, "proj/", "proj/contracts/")

	entries, err := Upload{Name: "proj.zip", Data: data}.Entries(context.Background())
	require.NoError(t, err)

	bodies := map[string]string{}
	dirs := 0
	for _, e := range entries {
		if e.IsDirectory {
			dirs++
			continue
		}
		body, err := e.ReadContent(context.Background())
		require.NoError(t, err)
		bodies[e.Filename] = body
	}
	assert.Equal(t, 2, dirs)
	assert.Equal(t, `#include "lib.fc";`, bodies["proj/contracts/main.fc"])
	assert.Len(t, bodies, 2)
}

func TestUploadLimits(t *testing.T) {
	data := zipOf(t, map[string]string{"a.fc": "a", "b.fc": "b", "c.fc": "c"})
	_, err := Upload{Name: "x.zip", Data: data, Limits: Limits{MaxEntries: 2}}.Entries(context.Background())
	assert.ErrorIs(t, err, ErrTooManyEntries)

	big := zipOf(t, map[string]string{"big.fc": strings.Repeat("x", 64)})
	_, err = Upload{Name: "x.zip", Data: big, Limits: Limits{MaxFileBytes: 16}}.Entries(context.Background())
	assert.ErrorIs(t, err, ErrEntryTooLarge)
}

func TestUploadSkipsIgnoredBeforeLimits(t *testing.T) {
	files := map[string]string{
		"contracts/main.fc":        "() recv_internal() impure { }",
		"node_modules/pkg/main.js": strings.Repeat("x", 64),
		".DS_Store":                strings.Repeat("y", 64),
	}
	for i := 0; i < 10; i++ {
		files[fmt.Sprintf("node_modules/pkg/f%d.js", i)] = "1"
		files[fmt.Sprintf("build/out%d.cell", i)] = "2"
	}
	data := zipOf(t, files, "node_modules/", "build/")
	limits := Limits{MaxEntries: 2, MaxFileBytes: 32}

	entries, err := Upload{Name: "proj.zip", Data: data, Limits: limits}.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "contracts/main.fc", entries[0].Filename)

	inst, err := workspace.NewImporter(nil).Import(context.Background(), Upload{Name: "proj.zip", Data: data, Limits: limits})
	require.NoError(t, err)
	var paths []string
	for _, n := range inst.Files {
		paths = append(paths, n.Path)
	}
	assert.Contains(t, paths, "contracts/main.fc")
	for _, p := range paths {
		assert.NotContains(t, p, "node_modules")
		assert.NotContains(t, p, "build")
	}
}

func TestUploadCustomSkip(t *testing.T) {
	data := zipOf(t, map[string]string{
		"a.fc":             "a",
		"drafts/b.fc":      "b",
		"node_modules/c.js": "c",
	})
	skip := func(name string) bool { return strings.HasPrefix(name, "drafts/") }

	entries, err := Upload{Name: "x.zip", Data: data, Skip: skip}.Entries(context.Background())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Filename)
	}
	assert.ElementsMatch(t, []string{"a.fc", "node_modules/c.js"}, names)
}

func TestUploadRejectsPlainText(t *testing.T) {
	_, err := Upload{Name: "notes.txt", Data: []byte("hello")}.Entries(context.Background())
	assert.ErrorIs(t, err, ErrNotArchive)
}
