package project

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonide/internal/build"
	"tonide/internal/compiler"
	"tonide/internal/funcsrc"
	"tonide/internal/gateway/repository/content"
	"tonide/internal/gateway/repository/projectstore"
	"tonide/internal/workspace"
)

type fixture struct {
	svc      *Service
	projects *projectstore.Store
	contents *content.MemoryStore
	compiled []string
}

func newFixture(t *testing.T, comp compiler.Compiler) *fixture {
	t.Helper()
	f := &fixture{
		projects: projectstore.New(""),
		contents: content.NewMemoryStore(),
	}
	if comp == nil {
		comp = compiler.Func(func(_ context.Context, req compiler.Request) (compiler.Response, error) {
			f.compiled = append(f.compiled, req.Targets...)
			return compiler.Response{Status: compiler.StatusOK, CodeBoc: "te6ccg=="}, nil
		})
	}
	parser := funcsrc.New()
	svc, err := New(Deps{
		Projects:  f.projects,
		Contents:  f.contents,
		Compiler:  comp,
		Extractor: parser,
		Parser:    parser,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func paths(nodes []workspace.TreeNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Path)
	}
	sort.Strings(out)
	return out
}

func TestCreateProjectFromTemplate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	p, err := f.svc.CreateProject(ctx, CreateRequest{Name: "Counter", Template: workspace.TemplateCounter})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, workspace.TemplateCounter, p.Template)
	assert.Nil(t, p.ABI)

	tree, err := f.svc.Tree(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"contracts", "contracts/counter.fc", "contracts/stdlib.fc", "contracts/storage.fc"}, paths(tree))
	require.NoError(t, workspace.Validate(tree))

	ids, err := f.contents.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	rec, err := f.svc.ReadFile(ctx, p.ID, "contracts/counter.fc")
	require.NoError(t, err)
	assert.Contains(t, rec.Content, "get_counter")
}

func TestCreateProjectImport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	read := func(body string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return body, nil }
	}
	archive := workspace.ArchiveEntries{
		{Filename: "src/main.fc", ReadContent: read(`#include "lib.fc";`)},
		{Filename: "src/lib.fc", ReadContent: read("int x() method_id { return 1; }")},
		{Filename: "node_modules/pkg/index.js", ReadContent: read("noise")},
	}

	p, err := f.svc.CreateProject(ctx, CreateRequest{Template: workspace.TemplateImport, Archive: archive})
	require.NoError(t, err)
	assert.Equal(t, "Project", p.Name)

	tree, err := f.svc.Tree(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "src/lib.fc", "src/main.fc", "stdlib.fc"}, paths(tree))

	_, err = f.svc.CreateProject(ctx, CreateRequest{Template: workspace.TemplateImport})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateProject(ctx, CreateRequest{Template: "hardhat"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateProjectWithDefaultFiles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	p, err := f.svc.CreateProject(ctx, CreateRequest{
		Template: workspace.TemplateImport,
		Files: []workspace.TreeNode{
			{Name: "main.fc", Type: workspace.NodeFile, Path: "main.fc", Content: "() main() {}"},
		},
	})
	require.NoError(t, err)
	rec, err := f.svc.ReadFile(ctx, p.ID, "main.fc")
	require.NoError(t, err)
	assert.Equal(t, "() main() {}", rec.Content)

	tree, err := f.svc.Tree(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tree[0].Content)
}

func TestCreateProjectErrorsKeepCause(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, CreateRequest{Template: "hardhat"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, workspace.ErrUnknownTemplate)

	_, err = f.svc.CreateProject(ctx, CreateRequest{
		Template: workspace.TemplateImport,
		Files: []workspace.TreeNode{
			{Name: "main.fc", Type: workspace.NodeFile, Path: "src/main.fc", Parent: "missing"},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, workspace.ErrInvalidTree)
}

func TestNodeLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, CreateRequest{Template: workspace.TemplateBlank})
	require.NoError(t, err)

	dir, err := f.svc.CreateNode(ctx, p.ID, CreateNodeRequest{Name: "lib", Type: workspace.NodeDirectory})
	require.NoError(t, err)
	file, err := f.svc.CreateNode(ctx, p.ID, CreateNodeRequest{ParentPath: "lib", Name: "math.fc", Type: workspace.NodeFile, Content: "v1"})
	require.NoError(t, err)
	assert.Equal(t, dir.ID, file.Parent)
	assert.Equal(t, "lib/math.fc", file.Path)

	_, err = f.svc.CreateNode(ctx, p.ID, CreateNodeRequest{ParentPath: "lib", Name: "math.fc", Type: workspace.NodeFile})
	assert.ErrorIs(t, err, ErrPathExists)
	_, err = f.svc.CreateNode(ctx, p.ID, CreateNodeRequest{ParentPath: "main.fc", Name: "x", Type: workspace.NodeFile})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateNode(ctx, p.ID, CreateNodeRequest{Name: "a/b", Type: workspace.NodeFile})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.WriteFile(ctx, p.ID, "lib/math.fc", "v2")
	require.NoError(t, err)
	rec, err := f.svc.ReadFile(ctx, p.ID, "lib/math.fc")
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Content)
	_, err = f.svc.WriteFile(ctx, p.ID, "lib", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	renamed, err := f.svc.RenameNode(ctx, p.ID, "lib", "imports")
	require.NoError(t, err)
	assert.Equal(t, "imports", renamed.Path)
	tree, err := f.svc.Tree(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, workspace.Validate(tree))
	assert.Contains(t, paths(tree), "imports/math.fc")

	rec, err = f.svc.ReadFile(ctx, p.ID, "imports/math.fc")
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Content)

	_, err = f.svc.RenameNode(ctx, p.ID, "imports", "main.fc")
	assert.ErrorIs(t, err, ErrPathExists)
}

func TestDeleteNodeCascadesContent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, CreateRequest{Template: workspace.TemplateCounter})
	require.NoError(t, err)

	before, err := f.contents.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, before, 3)

	removed, err := f.svc.DeleteNode(ctx, p.ID, "contracts")
	require.NoError(t, err)
	assert.Len(t, removed, 4)

	after, err := f.contents.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, after)
	tree, err := f.svc.Tree(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tree)

	_, err = f.svc.DeleteNode(ctx, p.ID, "contracts")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, CreateRequest{Template: workspace.TemplateBlank})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProject(ctx, p.ID))
	_, err = f.svc.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, projectstore.ErrNotFound)
	ids, err := f.contents.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	list, err := f.svc.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBuildPersistsOutput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, CreateRequest{Template: workspace.TemplateCounter})
	require.NoError(t, err)

	res, err := f.svc.Build(ctx, p.ID, "contracts/counter.fc")
	require.NoError(t, err)
	assert.Equal(t, "te6ccg==", res.ContractBOC)
	assert.ElementsMatch(t, []string{"contracts/counter.fc", "contracts/stdlib.fc", "contracts/storage.fc"}, res.Files)
	assert.Equal(t, []string{"contracts/counter.fc"}, f.compiled)

	stored, err := f.svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ABI)
	names := make([]string, 0, len(stored.ABI.Getters))
	for _, g := range stored.ABI.Getters {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"get_counter", "get_id"}, names)
	assert.Equal(t, "te6ccg==", stored.ContractBOC)

	_, err = f.svc.Build(ctx, "missing", "main.fc")
	assert.ErrorIs(t, err, projectstore.ErrNotFound)
	_, err = f.svc.Build(ctx, p.ID, "nope.fc")
	assert.ErrorIs(t, err, build.ErrEntryNotFound)
}

func TestBuildsOfOneProjectAreSerialized(t *testing.T) {
	var (
		active  atomic.Int32
		overlap atomic.Bool
	)
	comp := compiler.Func(func(context.Context, compiler.Request) (compiler.Response, error) {
		if active.Add(1) > 1 {
			overlap.Store(true)
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return compiler.Response{Status: compiler.StatusOK, CodeBoc: "AA=="}, nil
	})
	f := newFixture(t, comp)
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, CreateRequest{Template: workspace.TemplateBlank})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Build(ctx, p.ID, "main.fc")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	var k keyedMutex
	unlock := k.Lock("p1")
	unlock()
	assert.Empty(t, k.locks)
}
